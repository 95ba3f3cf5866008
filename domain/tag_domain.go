package domain

import "errors"

var (
	MessageSuccessGetTags   = "success get tags"
	MessageSuccessGetTag    = "success get tag"
	MessageSuccessCreateTag = "tag created successfully"
	MessageSuccessUpdateTag = "tag updated successfully"
	MessageSuccessDeleteTag = "tag deleted successfully"

	MessageFailedGetTags   = "failed to get tags"
	MessageFailedGetTag    = "failed to get tag"
	MessageFailedCreateTag = "failed to create tag"
	MessageFailedUpdateTag = "failed to update tag"
	MessageFailedDeleteTag = "failed to delete tag"

	ErrTagNotFound   = errors.New("tag not found")
	ErrTagNameExists = errors.New("tag name already exists")
)

type (
	TagRequest struct {
		Name string `json:"name" validate:"required,max=50"`
	}

	TagResponse struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
)
