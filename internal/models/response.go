package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type DosageResponse struct {
	Dosage      int  `json:"dosage"`
	CanGenerate bool `json:"canGenerate"`
}

type ResetDosageResponse struct {
	Dosage    int    `json:"dosage"`
	Resettime string `json:"resettime"`
}

type VerifyResponse struct {
	UID    string `json:"uid"`
	Dosage int    `json:"dosage"`
	Status string `json:"status"`
}

type GenerateResponse struct {
	UID      string                    `json:"uid"`
	Images   []string                  `json:"images"`
	Dosage   int                       `json:"dosage"`
	Record   *GenerationRecordResponse `json:"record,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

type GenerationRecordResponse struct {
	ID          int64     `json:"id"`
	UID         string    `json:"uid"`
	Prompt      string    `json:"prompt"`
	RefImg      string    `json:"ref_img,omitempty"`
	GImgURL1    string    `json:"g_imgurl1,omitempty"`
	GImgURL2    string    `json:"g_imgurl2,omitempty"`
	GImgURL3    string    `json:"g_imgurl3,omitempty"`
	GImgURL4    string    `json:"g_imgurl4,omitempty"`
	DownloadImg string    `json:"download_img,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewGenerationRecordResponse flattens the nullable columns for JSON output.
func NewGenerationRecordResponse(g *UserGeneration) *GenerationRecordResponse {
	return &GenerationRecordResponse{
		ID:          g.ID,
		UID:         g.UID,
		Prompt:      g.Prompt,
		RefImg:      g.RefImg.String,
		GImgURL1:    g.GImgURL1.String,
		GImgURL2:    g.GImgURL2.String,
		GImgURL3:    g.GImgURL3.String,
		GImgURL4:    g.GImgURL4.String,
		DownloadImg: g.DownloadImg.String,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

type GenerationListResponse struct {
	Records []GenerationRecordResponse `json:"records"`
}

type StateResponse struct {
	UID             string    `json:"uid"`
	IsGenerating    bool      `json:"isGenerating"`
	IsCompleted     bool      `json:"isCompleted"`
	StartTime       time.Time `json:"startTime"`
	Prompt          string    `json:"prompt"`
	ReferenceImages []string  `json:"referenceImages,omitempty"`
	AspectRatio     string    `json:"aspectRatio,omitempty"`
	ImageCount      int       `json:"imageCount"`
	StreamEnabled   bool      `json:"streamEnabled"`
	ResponseFormat  string    `json:"responseFormat,omitempty"`
}

type UploadResponse struct {
	URL        string `json:"url"`
	IsFallback bool   `json:"isFallback,omitempty"`
	Warning    string `json:"warning,omitempty"`
}
