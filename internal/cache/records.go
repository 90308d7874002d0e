package cache

// Payload types owned by the cache. The generation pipeline converts between
// these and the service-layer wire types at the cache boundary so cached data
// never aliases live service responses.

// TrackAsset is one synthesized track inside an audio job.
type TrackAsset struct {
	AudioURL   string `json:"audio_url"`
	ImageURL   string `json:"image_url,omitempty"`
	LocalAudio string `json:"local_audio,omitempty"`
	LocalImage string `json:"local_image,omitempty"`
	Duration   int    `json:"duration"`
}

// AudioJob is the cached result of one audio synthesis submission.
type AudioJob struct {
	JobID  string       `json:"job_id"`
	Title  string       `json:"title"`
	Style  string       `json:"style"`
	Mood   string       `json:"mood"`
	Status string       `json:"status"`
	Tracks []TrackAsset `json:"tracks,omitempty"`
}

// CachedTitle is one generated title pair.
type CachedTitle struct {
	NativeText  string `json:"native_text"`
	ForeignText string `json:"foreign_text"`
}

// TitleBatch is the cached result of one title generation call.
type TitleBatch struct {
	Keywords string        `json:"keywords"`
	Style    string        `json:"style"`
	Mood     string        `json:"mood"`
	Titles   []CachedTitle `json:"titles"`
}

// ImageResult is the cached result of one cover image synthesis.
type ImageResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	LocalPath string `json:"local_path,omitempty"`
}
