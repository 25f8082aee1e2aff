package stock

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckAvailabilityRequest struct {
	Items []Item `json:"items"`
}

type ItemResult struct {
	ProductID    string `json:"productId"`
	Available    bool   `json:"available"`
	CurrentStock *int   `json:"currentStock,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type CheckAvailabilityResponse struct {
	Items []ItemResult `json:"items"`
}

type MovementResult struct {
	ProductID     string `json:"productId"`
	Reserved      bool   `json:"reserved"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
}
