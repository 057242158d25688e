package models

// Pagination 列表响应的分页元数据
type Pagination struct {
	Size       int `json:"size"`
	Page       int `json:"page"`
	Count      int `json:"count"`
	TotalPages int `json:"totalPages"`
}

// NewPagination 计算分页元数据
func NewPagination(page, size, count int) Pagination {
	totalPages := 0
	if size > 0 {
		totalPages = (count + size - 1) / size
	}
	return Pagination{Size: size, Page: page, Count: count, TotalPages: totalPages}
}

// Offset 计算 SQL OFFSET，page 从 1 起
func Offset(page, size int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * size
}
