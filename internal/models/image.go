package models

type ImageJobState string

const (
	ImageSubmitted  ImageJobState = "submitted"
	ImageStarting   ImageJobState = "starting"
	ImageProcessing ImageJobState = "processing"
	ImageSucceeded  ImageJobState = "succeeded"
	ImageFailed     ImageJobState = "failed"
	ImageCanceled   ImageJobState = "canceled"
	ImageTimedOut   ImageJobState = "timed_out"
)

func (s ImageJobState) Terminal() bool {
	switch s {
	case ImageSucceeded, ImageFailed, ImageCanceled, ImageTimedOut:
		return true
	default:
		return false
	}
}

// ImageJob is the outcome of one generation. Reference is empty unless State is succeeded.
type ImageJob struct {
	ID        string        `json:"id,omitempty"`
	State     ImageJobState `json:"state"`
	Reference string        `json:"reference,omitempty"`
	Polls     int           `json:"polls"`
	Cause     error         `json:"-"`
}

func (j *ImageJob) UsePlaceholder() bool {
	return j == nil || j.State != ImageSucceeded || j.Reference == ""
}

// ImagePrompt is a composed instruction plus at most one raw base64 reference image.
type ImagePrompt struct {
	Text           string `json:"text"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}
