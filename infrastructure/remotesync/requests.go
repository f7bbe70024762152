package remotesync

import (
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

type createEntityRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

// updateEntityRequest carries only the fields being changed
type updateEntityRequest struct {
	Content *string                `json:"content,omitempty"`
	Color   *string                `json:"color,omitempty" validate:"omitempty,hexcolor"`
	GroupID *valueobjects.GroupRef `json:"group_id,omitempty"`
	X       *float64               `json:"x,omitempty"`
	Y       *float64               `json:"y,omitempty"`
	Z       *float64               `json:"z,omitempty"`
}

func updateRequestFrom(patch entities.EntityPatch) updateEntityRequest {
	req := updateEntityRequest{
		Content: patch.Content,
		Color:   patch.Color,
		GroupID: patch.GroupID,
	}
	if patch.Position != nil {
		x, y, z := patch.Position.X(), patch.Position.Y(), patch.Position.Z()
		req.X, req.Y, req.Z = &x, &y, &z
	}
	return req
}

func (r updateEntityRequest) empty() bool {
	return r.Content == nil && r.Color == nil && r.GroupID == nil && r.X == nil
}

type createConnectionRequest struct {
	SourceID int64 `json:"source_id" validate:"required,gt=0"`
	TargetID int64 `json:"target_id" validate:"required,gt=0,nefield=SourceID"`
}

type deleteConnectionRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type createGroupRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}
