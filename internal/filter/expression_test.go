package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpression(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "no protocols",
			opts: Options{Interface: "eth0"},
			want: "",
		},
		{
			name: "tcp dst port",
			opts: Options{Protocols: []Protocol{ProtoTCP}, DstPort: port(80)},
			want: "tcp and dst port 80",
		},
		{
			name: "both ports dst first",
			opts: Options{Protocols: []Protocol{ProtoUDP}, SrcPort: port(53), DstPort: port(5353)},
			want: "udp and dst port 5353 and src port 53",
		},
		{
			name: "ndp and mld share icmp6",
			opts: Options{Protocols: []Protocol{ProtoNDP, ProtoMLD}},
			want: "icmp6",
		},
		{
			name: "keywords",
			opts: Options{Protocols: []Protocol{ProtoICMPv4, ProtoARP, ProtoIGMP, ProtoICMPv6}},
			want: "icmp or arp or igmp or icmp6",
		},
		{
			name: "ports only on transport clauses",
			opts: Options{Protocols: []Protocol{ProtoTCP, ProtoUDP, ProtoARP}, DstPort: port(443)},
			want: "(tcp and dst port 443) or (udp and dst port 443) or arp",
		},
		{
			name: "multiple clauses without ports",
			opts: Options{Protocols: []Protocol{ProtoTCP, ProtoUDP}},
			want: "tcp or udp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expression(mustSpec(t, tt.opts)))
		})
	}
}

func TestExpressionSingleICMP6Clause(t *testing.T) {
	s := mustSpec(t, Options{Protocols: []Protocol{ProtoMLD, ProtoICMPv6, ProtoNDP}})
	expr := Expression(s)
	assert.Equal(t, 1, strings.Count(expr, "icmp6"))
}

func TestExpressionNilSpec(t *testing.T) {
	assert.Equal(t, "", Expression(nil))
}
