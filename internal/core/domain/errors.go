package domain

import "errors"

var (
	// ErrInvalidBoundingBox - координаты прямоугольника вне диапазона, не конечны или min >= max
	ErrInvalidBoundingBox = errors.New("invalid bounding box")
	// ErrInvalidGrid - размеры сетки меньше 1
	ErrInvalidGrid = errors.New("invalid grid dimensions")
	// ErrUnknownCrawlMode - режим обхода не single и не grid
	ErrUnknownCrawlMode = errors.New("unknown crawl mode")

	// ErrUpstreamRequest - транспортная ошибка или неуспешный HTTP-статус
	ErrUpstreamRequest = errors.New("upstream request failed")
	// ErrUpstreamParse - тело ответа не соответствует ожидаемой структуре
	ErrUpstreamParse = errors.New("upstream response parse failed")
	// ErrPersistence - хранилище не приняло запись
	ErrPersistence = errors.New("persistence failed")
)
