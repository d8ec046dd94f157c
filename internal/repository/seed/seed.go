// Package seed bundles the static marketplace data shipped with the service.
package seed

import _ "embed"

//go:embed teachers.json
var Teachers []byte

//go:embed chats.json
var Chats []byte
