// Package nodedto - DTO cho domain node.
package nodedto

// NodeCreateInput là input tạo node mới
type NodeCreateInput struct {
	Project     string                 `json:"project" validate:"required,objectid"`
	NodeType    string                 `json:"node_type" validate:"required"`
	Parent      string                 `json:"parent,omitempty" validate:"omitempty,objectid"`
	Name        string                 `json:"name" validate:"required,max=128,no_xss"`
	Description string                 `json:"description,omitempty"`
	Picture     string                 `json:"picture,omitempty" validate:"omitempty,objectid"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// NodeUpdateInput là input cập nhật node
type NodeUpdateInput struct {
	Name        string                 `json:"name,omitempty" validate:"omitempty,max=128,no_xss"`
	Description *string                `json:"description,omitempty"`
	Parent      string                 `json:"parent,omitempty" validate:"omitempty,objectid"`
	Picture     string                 `json:"picture,omitempty" validate:"omitempty,objectid"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// CommentCreateInput là input tạo comment dưới một node
type CommentCreateInput struct {
	Content string `json:"content" validate:"required"`
}

// CommentPatchInput là input PATCH một comment: vote hoặc edit
type CommentPatchInput struct {
	Op      string `json:"op" validate:"required,oneof=upvote downvote revoke edit"`
	Content string `json:"content,omitempty" validate:"required_if=Op edit"`
}
