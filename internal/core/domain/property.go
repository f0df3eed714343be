package domain

// RawListing - запись в формате внешнего API. Структура не фиксирована,
// разбором занимается нормализатор.
type RawListing map[string]interface{}

// CrawledProperty - нормализованное объявление, которое передается в хранилище.
// ExternalID - естественный ключ, по нему работает дедупликация во всем конвейере.
// nil в указателях означает "неизвестно" и отличается от пустой строки.
type CrawledProperty struct {
	ExternalID       string   `json:"externalId"`
	DisplayName      string   `json:"displayName"`
	TypeLabel        string   `json:"typeLabel"`
	DealTypeLabel    string   `json:"dealTypeLabel"`
	FloorInfo        string   `json:"floorInfo"`
	PriceRaw         string   `json:"priceRaw"`
	PrimaryAreaRaw   string   `json:"primaryAreaRaw"`
	SecondaryAreaRaw *string  `json:"secondaryAreaRaw"`
	Direction        *string  `json:"direction"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ImageURL         *string  `json:"imageUrl"`
	RealtorName      *string  `json:"realtorName"`
	LandTypeRaw      *string  `json:"landTypeRaw"`
	ZoneTypeRaw      *string  `json:"zoneTypeRaw"`
}

// CategoryGroup - набор кодов типов недвижимости, запрашиваемых одним проходом.
// Внешний API ограничивает выдачу на запрос, поэтому группы опрашиваются раздельно.
type CategoryGroup struct {
	Label      string
	FilterCode string
}
