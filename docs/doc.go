// Package docs provides generated OpenAPI documentation.
//
// Storyloom API
//
//	@title			Storyloom API
//	@version		1.0
//	@description	Illustrated story generation API for submitting topics and polling staged pipeline progress.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/storyloom/storyloom
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/storyloom/serve.go -o ./swagger --parseDependency --parseInternal
