// Package nodesvc - Test các hook chuẩn bị node: texture sort, default
// picture, bộ đếm rating và render markdown.
package nodesvc

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/armadillica/pillar-sub000/config"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
	"github.com/armadillica/pillar-sub000/internal/global"
)

func TestTextureSortFiles_ColorLenDau(t *testing.T) {
	node := models.Node{
		NodeType: models.NodeTypeTexture,
		Properties: bson.M{
			"files": bson.A{
				bson.M{"map_type": "specular"},
				bson.M{"map_type": "normal"},
				bson.M{"map_type": "color"},
				bson.M{"map_type": "bump"},
			},
		},
	}

	textureSortFiles(&node)

	files := node.Properties["files"].(bson.A)
	order := make([]string, len(files))
	for i, entry := range files {
		order[i], _ = entry.(bson.M)["map_type"].(string)
	}
	want := []string{"color", "bump", "normal", "specular"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Thứ tự map_type sai: nhận %v, muốn %v", order, want)
		}
	}
}

func TestTextureSortFiles_BoQuaNodeKhacLoai(t *testing.T) {
	node := models.Node{
		NodeType: models.NodeTypeAsset,
		Properties: bson.M{
			"files": bson.A{
				bson.M{"map_type": "specular"},
				bson.M{"map_type": "color"},
			},
		},
	}
	textureSortFiles(&node)
	files := node.Properties["files"].(bson.A)
	if files[0].(bson.M)["map_type"] != "specular" {
		t.Error("Node không phải texture thì không được sort lại files")
	}
}

func TestSetDefaultPicture_AssetAnh(t *testing.T) {
	svc := &NodeService{}
	fileID := primitive.NewObjectID()
	node := models.Node{
		NodeType: models.NodeTypeAsset,
		Properties: bson.M{
			"content_type": "image",
			"file":         fileID,
		},
	}

	svc.setDefaultPicture(&node)

	if node.Picture == nil || *node.Picture != fileID {
		t.Errorf("Asset ảnh phải lấy chính file làm picture, nhận %v", node.Picture)
	}
}

func TestSetDefaultPicture_AssetVideoKhongGan(t *testing.T) {
	svc := &NodeService{}
	node := models.Node{
		NodeType: models.NodeTypeAsset,
		Properties: bson.M{
			"content_type": "video",
			"file":         primitive.NewObjectID(),
		},
	}
	svc.setDefaultPicture(&node)
	if node.Picture != nil {
		t.Error("Asset video không được gán default picture")
	}
}

func TestSetDefaultPicture_TextureUuTienColorMap(t *testing.T) {
	svc := &NodeService{}
	colorFile := primitive.NewObjectID()
	node := models.Node{
		NodeType: models.NodeTypeTexture,
		Properties: bson.M{
			"files": bson.A{
				bson.M{"map_type": "normal", "file": primitive.NewObjectID()},
				bson.M{"map_type": "color", "file": colorFile},
			},
		},
	}

	svc.setDefaultPicture(&node)

	if node.Picture == nil || *node.Picture != colorFile {
		t.Errorf("Texture phải lấy color map làm picture, nhận %v", node.Picture)
	}
}

func TestSetDefaultPicture_TextureKhongCoColorLayFileDau(t *testing.T) {
	svc := &NodeService{}
	firstFile := primitive.NewObjectID()
	node := models.Node{
		NodeType: models.NodeTypeTexture,
		Properties: bson.M{
			"files": bson.A{
				bson.M{"map_type": "normal", "file": firstFile},
				bson.M{"map_type": "specular", "file": primitive.NewObjectID()},
			},
		},
	}
	svc.setDefaultPicture(&node)
	if node.Picture == nil || *node.Picture != firstFile {
		t.Errorf("Texture không có color map phải lấy file đầu tiên, nhận %v", node.Picture)
	}
}

func TestSetDefaultPicture_KhongGhiDePictureCoSan(t *testing.T) {
	svc := &NodeService{}
	existing := primitive.NewObjectID()
	node := models.Node{
		NodeType: models.NodeTypeAsset,
		Picture:  &existing,
		Properties: bson.M{
			"content_type": "image",
			"file":         primitive.NewObjectID(),
		},
	}
	svc.setDefaultPicture(&node)
	if *node.Picture != existing {
		t.Error("Picture có sẵn không được ghi đè")
	}
}

func TestDeriveRatingCounters(t *testing.T) {
	ratings := []models.Rating{
		{User: primitive.NewObjectID(), IsPositive: true},
		{User: primitive.NewObjectID(), IsPositive: true},
		{User: primitive.NewObjectID(), IsPositive: false},
	}
	counters := deriveRatingCounters(ratings)
	if counters.RatingPositive != 2 || counters.RatingNegative != 1 {
		t.Errorf("Bộ đếm sai: +%d/-%d, muốn +2/-1",
			counters.RatingPositive, counters.RatingNegative)
	}

	empty := deriveRatingCounters(nil)
	if empty.RatingPositive != 0 || empty.RatingNegative != 0 {
		t.Error("Danh sách rỗng phải cho bộ đếm 0/0")
	}
}

func TestRenderMarkdown_SanitizeHTML(t *testing.T) {
	svc := &NodeService{}
	node := models.Node{Properties: bson.M{}}

	html := svc.renderMarkdown(context.Background(), &node, "**đậm** <script>alert(1)</script>")

	if !strings.Contains(html, "<strong>đậm</strong>") {
		t.Errorf("Markdown phải được render, nhận %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("HTML độc phải bị sanitize, nhận %q", html)
	}
}

func TestRenderMarkdown_AttachmentKhongTonTai(t *testing.T) {
	svc := &NodeService{}
	node := models.Node{Properties: bson.M{}}

	html := svc.renderMarkdown(context.Background(), &node, "xem @[missing-slug] nhé")

	if !strings.Contains(html, "not found") {
		t.Errorf("Slug không tồn tại phải render placeholder, nhận %q", html)
	}
}

func TestRenderMarkdownFields_ContentHTMLSibling(t *testing.T) {
	svc := &NodeService{}
	node := models.Node{
		NodeType:    models.NodeTypeComment,
		Description: "# Tiêu đề",
		Properties:  bson.M{"content": "chữ *nghiêng*"},
	}

	if err := svc.renderMarkdownFields(context.Background(), &node); err != nil {
		t.Fatalf("renderMarkdownFields lỗi: %v", err)
	}

	if !strings.Contains(node.DescriptionHTML, "<h1>") {
		t.Errorf("description_html phải chứa heading, nhận %q", node.DescriptionHTML)
	}
	contentHTML, _ := node.Properties["content_html"].(string)
	if !strings.Contains(contentHTML, "<em>") {
		t.Errorf("content_html phải chứa <em>, nhận %q", contentHTML)
	}
}

func TestAttachmentImageLink_UuTienVariationL(t *testing.T) {
	file := filemodels.File{
		ContentType: "image/png",
		Link:        "https://cdn/original.png",
		Variations: []filemodels.FileVariation{
			{Size: "s", Link: "https://cdn/s.png"},
			{Size: "l", Link: "https://cdn/l.png"},
		},
	}
	if got := attachmentImageLink(&file); got != "https://cdn/l.png" {
		t.Errorf("Phải ưu tiên variation l, nhận %q", got)
	}
}

func TestAttachmentImageLink_FallbackLinkGoc(t *testing.T) {
	file := filemodels.File{
		ContentType: "image/png",
		Link:        "https://cdn/original.png",
	}
	if got := attachmentImageLink(&file); got != "https://cdn/original.png" {
		t.Errorf("Không có variation phải fallback về link gốc, nhận %q", got)
	}
}

func TestShortLinkFor(t *testing.T) {
	oldCfg := global.ServerConfig
	defer func() { global.ServerConfig = oldCfg }()
	global.ServerConfig = &config.Configuration{ShortLinkBaseURL: "https://blender.cloud/r"}

	if got := ShortLinkFor("abc123"); got != "https://blender.cloud/r/abc123" {
		t.Errorf("Short link sai: %q", got)
	}
}
