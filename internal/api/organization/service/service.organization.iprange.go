// Package orgsvc - service cho domain organization.
package orgsvc

import (
	"bytes"
	"fmt"
	"net"

	models "github.com/armadillica/pillar-sub000/internal/api/organization/models"
	"github.com/armadillica/pillar-sub000/internal/common"
)

// ParseIPRange chuyển CIDR (IPv4 "a.b.c.d/p" hoặc IPv6) thành IPRange.
// IPv4 được lưu dạng IPv4-mapped IPv6 nên start/end luôn là 16 byte,
// mọi dải đều nằm trong không gian 128 bit và so sánh được bằng bytes.
// Prefix lỏng hơn mức tối thiểu cấu hình bị từ chối; /0 luôn bị từ chối.
func ParseIPRange(cidr string, minPrefixV4, minPrefixV6 int) (models.IPRange, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return models.IPRange{}, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Dải IP '%s' không hợp lệ", cidr),
			common.StatusUnprocessable,
			err.Error(),
		)
	}

	ones, bits := ipNet.Mask.Size()
	isV4 := ip.To4() != nil

	// prefix trong không gian 128 bit; IPv4 /p tương ứng /(p+96)
	prefix128 := ones
	if isV4 && bits == 32 {
		prefix128 = ones + 96
	}

	minPrefix := minPrefixV6
	if isV4 {
		minPrefix = minPrefixV4 + 96
	}
	if ones == 0 || prefix128 < minPrefix {
		return models.IPRange{}, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Dải IP '%s' quá rộng, prefix tối thiểu là /%d (IPv4) hoặc /%d (IPv6)", cidr, minPrefixV4, minPrefixV6),
			common.StatusUnprocessable,
			nil,
		)
	}

	start := ipNet.IP.To16()
	if start == nil {
		return models.IPRange{}, common.ErrInvalidInput
	}

	// end = start với các bit ngoài prefix bật lên 1
	end := make([]byte, net.IPv6len)
	copy(end, start)
	for i := prefix128; i < 128; i++ {
		end[i/8] |= 1 << (7 - uint(i%8))
	}

	human := fmt.Sprintf("%s/%d", ipNet.IP.String(), ones)

	rangeStart := make([]byte, net.IPv6len)
	copy(rangeStart, start)

	return models.IPRange{
		Start:  rangeStart,
		End:    end,
		Human:  human,
		Prefix: prefix128,
	}, nil
}

// IPTo16 chuyển địa chỉ IP về dạng 16 byte big-endian dùng để query dải.
func IPTo16(ip net.IP) []byte {
	if ip == nil {
		return nil
	}
	b := ip.To16()
	if b == nil {
		return nil
	}
	out := make([]byte, net.IPv6len)
	copy(out, b)
	return out
}

// RangeContains kiểm tra một địa chỉ có nằm trong dải không (dùng trong test và promote).
func RangeContains(r models.IPRange, ip net.IP) bool {
	addr := IPTo16(ip)
	if addr == nil || len(r.Start) != net.IPv6len || len(r.End) != net.IPv6len {
		return false
	}
	return bytes.Compare(r.Start, addr) <= 0 && bytes.Compare(addr, r.End) <= 0
}
