package stats

// ProtocolEntry 单个协议的计数
type ProtocolEntry struct {
	Protocol string `json:"protocol"`
	Seen     uint64 `json:"seen"`
	Emitted  uint64 `json:"emitted"`
	Filtered uint64 `json:"filtered"`
}

// Snapshot 会话统计快照
type Snapshot struct {
	Seen      uint64          `json:"seen"`
	Emitted   uint64          `json:"emitted"`
	Filtered  uint64          `json:"filtered"`
	Protocols []ProtocolEntry `json:"protocols"`
}

// unknownProtocol 无法识别协议的帧归入该标签
const unknownProtocol = "other"
