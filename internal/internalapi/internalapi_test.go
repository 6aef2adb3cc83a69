package internalapi

import (
	"context"
	"testing"

	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
)

func TestDispatchTheoPattern(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var gotID string
	Register("GET", "/files/:id", func(ctx context.Context, req *Request) (*Response, error) {
		gotID = req.Params["id"]
		return &Response{StatusCode: common.StatusOK, Data: "file"}, nil
	})
	Register("POST", "/tokens/gc", func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: common.StatusOK, Data: "gc"}, nil
	})

	resp, err := Do(context.Background(), "get", "/files/abc123", nil, nil)
	if err != nil {
		t.Fatalf("dispatch lỗi: %v", err)
	}
	if resp.Data != "file" || gotID != "abc123" {
		t.Errorf("route /files/:id phải nhận param id=abc123, được %q / data %v", gotID, resp.Data)
	}

	// Method khớp path nhưng sai verb thì không match
	if _, err := Do(context.Background(), "DELETE", "/files/abc123", nil, nil); err != common.ErrNotFound {
		t.Errorf("method không đăng ký phải trả ErrNotFound, được %v", err)
	}

	// Path tĩnh match chính xác
	resp, err = Do(context.Background(), "POST", "/tokens/gc", nil, nil)
	if err != nil || resp.Data != "gc" {
		t.Errorf("route tĩnh phải match, được %v / %v", resp, err)
	}

	// Thừa segment thì không match
	if _, err := Do(context.Background(), "POST", "/tokens/gc/extra", nil, nil); err != common.ErrNotFound {
		t.Errorf("path thừa segment phải trả ErrNotFound, được %v", err)
	}
}

func TestDecodeBody(t *testing.T) {
	global.InitValidator()

	type input struct {
		Name string `json:"name" validate:"required"`
	}

	var dto input
	req := &Request{Body: []byte(`{"name": "ảnh demo"}`)}
	if err := DecodeBody(req, &dto); err != nil {
		t.Fatalf("body hợp lệ không được lỗi: %v", err)
	}
	if dto.Name != "ảnh demo" {
		t.Errorf("decode sai: %+v", dto)
	}

	var empty input
	if err := DecodeBody(&Request{}, &empty); err == nil {
		t.Error("body thiếu field bắt buộc phải trả lỗi validation")
	}

	var invalid input
	if err := DecodeBody(&Request{Body: []byte("không phải json")}, &invalid); err == nil {
		t.Error("body không phải JSON phải trả lỗi")
	}
}

func TestMatchSegments(t *testing.T) {
	params, ok := matchSegments(splitPath("/nodes/:id/comments/:cid"), splitPath("/nodes/n1/comments/c2"))
	if !ok {
		t.Fatal("pattern phải match path cùng cấu trúc")
	}
	if params["id"] != "n1" || params["cid"] != "c2" {
		t.Errorf("params trích sai: %v", params)
	}

	if _, ok := matchSegments(splitPath("/nodes/:id"), splitPath("/files/n1")); ok {
		t.Error("segment tĩnh khác nhau không được match")
	}
}
