package dto

type IngestDocumentRequest struct {
	Source string `json:"source" validate:"required,max=512"`
	Text   string `json:"text" validate:"required"`
}

type IngestDocumentResponse struct {
	Source string `json:"source"`
	Queued bool   `json:"queued"`
}

// PublishIngestDocumentMessage is the payload of an ingestion job.
type PublishIngestDocumentMessage struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}
