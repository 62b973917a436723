package dto

import "github.com/Digitalhour/ACSCoreOS-sub013/internal/model"

// ── 知识库 DTO ──

// CreateWikiPageRequest 创建页面
type CreateWikiPageRequest struct {
	Title       string  `json:"title"        binding:"required,max=200"`
	Slug        string  `json:"slug"         binding:"omitempty,max=180"`
	Content     string  `json:"content"      binding:"required"`
	ParentID    *string `json:"parent_id"    binding:"omitempty,uuid"`
	IsPublished *bool   `json:"is_published"`
}

// UpdateWikiPageRequest 更新页面，Version 为客户端读取时的版本
type UpdateWikiPageRequest struct {
	Title       *string `json:"title"        binding:"omitempty,max=200"`
	Content     *string `json:"content"`
	ParentID    *string `json:"parent_id"    binding:"omitempty,uuid"`
	IsPublished *bool   `json:"is_published"`
	Version     int     `json:"version"      binding:"required,min=1"`
}

// WikiListRequest 页面列表
type WikiListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// WikiPageResponse 页面详情（含渲染后的 HTML）
type WikiPageResponse struct {
	*model.WikiPage
	HTML string `json:"html"`
}
