package connectrpc

import (
	"github.com/eslsoft/dsasheet/internal/repository"
	studyv1 "github.com/eslsoft/dsasheet/pkg/api/study/v1"
)

const _maxPageSize = 200

func convertPagination(p *studyv1.PaginationRequest) repository.Pagination {
	if p == nil {
		p = &studyv1.PaginationRequest{}
	}
	pageNo := p.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > _maxPageSize {
		pageSize = _maxPageSize
	}

	return repository.Pagination{PageNo: pageNo, PageSize: pageSize}
}
