package models

import "testing"

func TestContentTypeMajor(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{"image/png", "image"},
		{"video/mp4", "video"},
		{"application/x-blend", "application"},
		{"text", "text"},
		{"", ""},
	}
	for _, c := range cases {
		f := File{ContentType: c.contentType}
		if got := f.ContentTypeMajor(); got != c.want {
			t.Errorf("ContentTypeMajor(%q) = %q, muốn %q", c.contentType, got, c.want)
		}
	}
}

func TestVariationBySize(t *testing.T) {
	f := File{Variations: []FileVariation{
		{Size: "s", Link: "link-s"},
		{Size: "l", Link: "link-l"},
	}}

	v := f.VariationBySize("l")
	if v == nil || v.Link != "link-l" {
		t.Fatalf("VariationBySize(l) = %+v, muốn variation có link-l", v)
	}
	if f.VariationBySize("h") != nil {
		t.Error("VariationBySize với size không tồn tại phải trả nil")
	}

	// Con trỏ trỏ thẳng vào slice, sửa qua con trỏ phải thấy trên document
	v.Link = "đã đổi"
	if f.Variations[1].Link != "đã đổi" {
		t.Error("VariationBySize phải trả con trỏ vào slice variations")
	}
}

func TestAggregateLength(t *testing.T) {
	f := File{
		Length: 1000,
		Variations: []FileVariation{
			{Size: "s", Length: 10},
			{Size: "t", Length: 25},
		},
	}
	if got := f.AggregateLength(); got != 1035 {
		t.Errorf("AggregateLength = %d, muốn 1035", got)
	}

	empty := File{Length: 7}
	if got := empty.AggregateLength(); got != 7 {
		t.Errorf("AggregateLength không variation = %d, muốn 7", got)
	}
}
