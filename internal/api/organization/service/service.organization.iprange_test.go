package orgsvc

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMinPrefixV4 = 8
	testMinPrefixV6 = 48
)

func TestParseIPRange_IPv4(t *testing.T) {
	r, err := ParseIPRange("192.168.3.0/24", testMinPrefixV4, testMinPrefixV6)
	require.NoError(t, err)

	// IPv4 /24 nằm trong không gian 128 bit là /120
	assert.Equal(t, 120, r.Prefix)
	assert.Equal(t, "192.168.3.0/24", r.Human)
	assert.Len(t, r.Start, net.IPv6len)
	assert.Len(t, r.End, net.IPv6len)

	assert.Equal(t, IPTo16(net.ParseIP("192.168.3.0")), r.Start)
	assert.Equal(t, IPTo16(net.ParseIP("192.168.3.255")), r.End)
}

func TestParseIPRange_IPv4HostBitsBiXoa(t *testing.T) {
	// net.ParseCIDR chuẩn hoá về địa chỉ mạng
	r, err := ParseIPRange("10.20.30.40/16", testMinPrefixV4, testMinPrefixV6)
	require.NoError(t, err)
	assert.Equal(t, "10.20.0.0/16", r.Human)
}

func TestParseIPRange_IPv6(t *testing.T) {
	r, err := ParseIPRange("2a03:b0c0:0:1010::/64", testMinPrefixV4, testMinPrefixV6)
	require.NoError(t, err)

	assert.Equal(t, 64, r.Prefix)
	assert.Equal(t, IPTo16(net.ParseIP("2a03:b0c0:0:1010::")), r.Start)
	assert.Equal(t, IPTo16(net.ParseIP("2a03:b0c0:0:1010:ffff:ffff:ffff:ffff")), r.End)
}

func TestParseIPRange_TuChoiQuaRong(t *testing.T) {
	cases := []string{
		"0.0.0.0/0",
		"::/0",
		"10.0.0.0/4",     // lỏng hơn min /8 của IPv4
		"2a03:b0c0::/32", // lỏng hơn min /48 của IPv6
	}
	for _, cidr := range cases {
		_, err := ParseIPRange(cidr, testMinPrefixV4, testMinPrefixV6)
		assert.Error(t, err, cidr)
	}
}

func TestParseIPRange_KhongHopLe(t *testing.T) {
	for _, cidr := range []string{"khong-phai-cidr", "192.168.1.0", "192.168.1.0/33"} {
		_, err := ParseIPRange(cidr, testMinPrefixV4, testMinPrefixV6)
		assert.Error(t, err, cidr)
	}
}

func TestRangeContains(t *testing.T) {
	r, err := ParseIPRange("192.168.3.0/24", testMinPrefixV4, testMinPrefixV6)
	require.NoError(t, err)

	assert.True(t, RangeContains(r, net.ParseIP("192.168.3.1")))
	assert.True(t, RangeContains(r, net.ParseIP("192.168.3.255")))
	assert.False(t, RangeContains(r, net.ParseIP("192.168.4.1")))
	assert.False(t, RangeContains(r, net.ParseIP("2a03:b0c0:0:1010::1")))
	assert.False(t, RangeContains(r, nil))
}

func TestIPTo16(t *testing.T) {
	assert.Nil(t, IPTo16(nil))
	assert.Len(t, IPTo16(net.ParseIP("127.0.0.1")), net.IPv6len)
	assert.Len(t, IPTo16(net.ParseIP("::1")), net.IPv6len)
}
