package landfetcher

import (
	"strings"

	"land-crawler-service/internal/core/domain"
)

// Имена полей записи внешнего API. Остальной код знает только CrawledProperty.
const (
	fieldID            = "atclNo"
	fieldDescription   = "atclFetrDesc"
	fieldName          = "atclNm"
	fieldTypeLabel     = "rletTpNm"
	fieldDealTypeLabel = "tradTpNm"
	fieldFloorInfo     = "flrInfo"
	fieldPriceText     = "hanPrc"
	fieldPrice         = "prc"
	fieldPrimaryArea   = "spc1"
	fieldSecondaryArea = "spc2"
	fieldDirection     = "direction"
	fieldLatitude      = "lat"
	fieldLongitude     = "lng"
	fieldImagePath     = "repImgUrl"
	fieldRealtorName   = "rltrNm"
	fieldLandType      = "lndTpNm"
	fieldZoneType      = "useZnNm"
)

// ListingMapper переводит запись внешнего API в CrawledProperty
type ListingMapper struct {
	imageHost   string
	placeholder string
}

// NewListingMapper создает маппер. imageHost - CDN для относительных путей картинок,
// placeholder - название объявления, если в записи нет ни описания, ни имени.
func NewListingMapper(imageHost, placeholder string) *ListingMapper {
	return &ListingMapper{
		imageHost:   strings.TrimRight(imageHost, "/"),
		placeholder: placeholder,
	}
}

// Normalize не возвращает ошибок: некорректное поле становится nil, запись не отбрасывается
func (m *ListingMapper) Normalize(raw domain.RawListing) domain.CrawledProperty {
	id, _ := getString(raw[fieldID])

	displayName, ok := firstNonEmpty(raw, fieldDescription, fieldName)
	if !ok {
		displayName = m.placeholder
	}

	price, _ := firstNonEmpty(raw, fieldPriceText, fieldPrice)

	typeLabel, _ := getString(raw[fieldTypeLabel])
	dealTypeLabel, _ := getString(raw[fieldDealTypeLabel])
	floorInfo, _ := getString(raw[fieldFloorInfo])
	primaryArea, _ := getString(raw[fieldPrimaryArea])

	return domain.CrawledProperty{
		ExternalID:       id,
		DisplayName:      displayName,
		TypeLabel:        typeLabel,
		DealTypeLabel:    dealTypeLabel,
		FloorInfo:        floorInfo,
		PriceRaw:         price,
		PrimaryAreaRaw:   primaryArea,
		SecondaryAreaRaw: getStringPtr(raw[fieldSecondaryArea]),
		Direction:        getStringPtr(raw[fieldDirection]),
		Latitude:         getFloat64Ptr(raw[fieldLatitude]),
		Longitude:        getFloat64Ptr(raw[fieldLongitude]),
		ImageURL:         m.imageURL(raw[fieldImagePath]),
		RealtorName:      getStringPtr(raw[fieldRealtorName]),
		LandTypeRaw:      getStringPtr(raw[fieldLandType]),
		ZoneTypeRaw:      getStringPtr(raw[fieldZoneType]),
	}
}

// imageURL делает путь картинки абсолютным. Пустой или отсутствующий путь дает nil.
func (m *ListingMapper) imageURL(value interface{}) *string {
	path, ok := value.(string)
	if !ok {
		return nil
	}
	path = strings.TrimSpace(path)

	var abs string
	switch {
	case path == "":
		return nil
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		abs = path
	case strings.HasPrefix(path, "//"):
		abs = "https:" + path
	case strings.HasPrefix(path, "/"):
		abs = m.imageHost + path
	default:
		abs = m.imageHost + "/" + path
	}
	return &abs
}
