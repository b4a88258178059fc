package models

type DosageRequest struct {
	UID string `json:"uid" binding:"required"`
}

type VerifyRequest struct {
	UID   string `json:"uid" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type GenerateRequest struct {
	UID             string   `json:"uid" binding:"required"`
	Prompt          string   `json:"prompt" binding:"required"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
	AspectRatio     string   `json:"aspectRatio,omitempty" example:"3:4"`
	// ImageCount is the number of images to generate (1-4).
	ImageCount     int    `json:"imageCount,omitempty"`
	Stream         bool   `json:"stream,omitempty"`
	ResponseFormat string `json:"responseFormat,omitempty" example:"url"` // "url" or "b64_json"
}

type CreateWithResultRequest struct {
	UID      string `json:"uid" binding:"required"`
	Prompt   string `json:"prompt" binding:"required"`
	RefImg   string `json:"ref_img,omitempty"`
	GImgURL1 string `json:"g_imgurl1,omitempty"`
	GImgURL2 string `json:"g_imgurl2,omitempty"`
	GImgURL3 string `json:"g_imgurl3,omitempty"`
	GImgURL4 string `json:"g_imgurl4,omitempty"`
}

type UpdateDownloadRequest struct {
	UID         string `json:"uid" binding:"required"`
	DownloadImg string `json:"download_img" binding:"required"`
}
