package schemas

import "embed"

// SchemasFS содержит JSON-схемы событий, которыми сервис обменивается через брокер
//
//go:embed events
var SchemasFS embed.FS
