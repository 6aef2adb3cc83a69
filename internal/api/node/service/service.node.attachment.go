package nodesvc

import (
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"

	"github.com/armadillica/pillar-sub000/config"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	models "github.com/armadillica/pillar-sub000/internal/api/node/models"
)

// attachmentPattern khớp shortcode @[slug] trong markdown
var attachmentPattern = regexp.MustCompile(`@\[([a-zA-Z0-9_\-]+)\]`)

// htmlPolicy sanitize HTML sau khi render markdown.
// Client không bao giờ được tin HTML gửi lên, mọi render đều đi qua đây.
var htmlPolicy = buildHTMLPolicy()

func buildHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("width", "height", "title").OnElements("img")
	policy.AllowAttrs("target").OnElements("a")
	return policy
}

// renderMarkdownFields render lại mọi field markdown của node sang sibling
// _html: description → description_html, properties.content → content_html.
func (s *NodeService) renderMarkdownFields(ctx context.Context, node *models.Node) error {
	if node.Description != "" {
		node.DescriptionHTML = s.renderMarkdown(ctx, node, node.Description)
	} else {
		node.DescriptionHTML = ""
	}

	if content, ok := node.Properties["content"].(string); ok && content != "" {
		node.Properties["content_html"] = s.renderMarkdown(ctx, node, content)
	}
	return nil
}

// renderMarkdown expand các attachment shortcode rồi render markdown và
// sanitize kết quả.
func (s *NodeService) renderMarkdown(ctx context.Context, node *models.Node, text string) string {
	attachments := node.Attachments()

	expanded := attachmentPattern.ReplaceAllStringFunc(text, func(match string) string {
		slug := attachmentPattern.FindStringSubmatch(match)[1]
		att, ok := attachments[slug]
		if !ok {
			return attachmentNotFound(slug)
		}
		if att.Collection != "" && att.Collection != "files" {
			logrus.Warnf("⚠️ [NODE] Attachment %q của node %s trỏ tới collection %q không hỗ trợ",
				slug, node.ID.Hex(), att.Collection)
			return attachmentNotFound(slug)
		}
		file, err := s.files.FindOneById(ctx, att.Oid)
		if err != nil {
			logrus.Warnf("⚠️ [NODE] Attachment %q của node %s trỏ tới file %s không tồn tại",
				slug, node.ID.Hex(), att.Oid.Hex())
			return attachmentNotFound(slug)
		}
		return renderAttachmentFile(&file)
	})

	rendered := blackfriday.Run([]byte(expanded))
	return htmlPolicy.Sanitize(string(rendered))
}

// renderAttachmentFile sinh HTML cho một attachment: ảnh thành <img>,
// còn lại thành link tải về.
func renderAttachmentFile(file *filemodels.File) string {
	if file.ContentTypeMajor() == "image" {
		link := attachmentImageLink(file)
		if link != "" {
			return fmt.Sprintf(`<img src=%q alt=%q>`, link, file.Filename)
		}
	}
	if file.Link == "" {
		return attachmentNotFound(file.Filename)
	}
	return fmt.Sprintf(`<a href=%q target="_blank">%s</a>`, file.Link, html.EscapeString(file.Filename))
}

// attachmentImageLink chọn link ảnh: ưu tiên variation size l, sau đó lần
// lượt các size còn lại, cuối cùng là link file gốc.
func attachmentImageLink(file *filemodels.File) string {
	if v := file.VariationBySize("l"); v != nil && v.Link != "" {
		return v.Link
	}
	for _, size := range config.ThumbnailSizeNames {
		if v := file.VariationBySize(size); v != nil && v.Link != "" {
			return v.Link
		}
	}
	return file.Link
}

func attachmentNotFound(slug string) string {
	return html.EscapeString(fmt.Sprintf("[attachment %q not found]", slug))
}
