package dto

import "github.com/google/uuid"

type RegionDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type FaceMatchDTO struct {
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Confidence float64   `json:"confidence"`
	Region     RegionDTO `json:"region"`
}

type PhotoResponse struct {
	ID         uuid.UUID      `json:"id"`
	GroupID    uuid.UUID      `json:"group_id"`
	UploaderID uuid.UUID      `json:"uploader_id"`
	Faces      []FaceMatchDTO `json:"faces"`
	CapturedAt string         `json:"captured_at"`
	UploadedAt string         `json:"uploaded_at"`
}

type GroupResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	CreatorID uuid.UUID   `json:"creator_id"`
	MemberIDs []uuid.UUID `json:"member_ids"`
	CreatedAt string      `json:"created_at"`
}

type BatchResponse struct {
	Group             GroupResponse   `json:"group"`
	Photos            []PhotoResponse `json:"photos"`
	FacesDetected     int             `json:"faces_detected"`
	DuplicatesSkipped int             `json:"duplicates_skipped"`
}

type AddMembersRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" binding:"required"`
}
