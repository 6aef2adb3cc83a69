package utility

import "sort"

// Contains kiểm tra một phần tử có trong slice hay không
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Union hợp hai slice, loại bỏ phần tử trùng. Thứ tự không đảm bảo.
func Union[T comparable](a, b []T) []T {
	seen := make(map[T]bool, len(a)+len(b))
	out := make([]T, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Intersects kiểm tra hai slice có phần tử chung hay không
func Intersects[T comparable](a, b []T) bool {
	seen := make(map[T]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if seen[v] {
			return true
		}
	}
	return false
}

// IsSuperset kiểm tra slice a có chứa tất cả phần tử của b hay không
func IsSuperset[T comparable](a, b []T) bool {
	seen := make(map[T]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

// Difference trả về các phần tử có trong a nhưng không có trong b
func Difference[T comparable](a, b []T) []T {
	seen := make(map[T]bool, len(b))
	for _, v := range b {
		seen[v] = true
	}
	out := []T{}
	for _, v := range a {
		if !seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// Remove trả về bản copy của slice đã loại bỏ mọi phần tử bằng item
func Remove[T comparable](slice []T, item T) []T {
	out := make([]T, 0, len(slice))
	for _, v := range slice {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

// SortedStrings trả về bản copy đã sort của slice string.
// Dùng khi cần output ổn định (chế độ testing).
func SortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
