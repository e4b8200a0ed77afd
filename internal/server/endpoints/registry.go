package endpoints

import (
	"github.com/storyloom/storyloom/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Work endpoints
		&SubmitWorkEndpoint{},
		&ListWorksEndpoint{},
		&GetWorkEndpoint{},
		&DeleteWorkEndpoint{},
		&ExportWorkEndpoint{},

		// Image serving
		&ImageEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}

// WorkCommands groups work endpoints for the CLI's "works" subcommand.
func WorkCommands() []api.Endpoint {
	return []api.Endpoint{
		&SubmitWorkEndpoint{},
		&ListWorksEndpoint{},
		&GetWorkEndpoint{},
		&DeleteWorkEndpoint{},
		&ExportWorkEndpoint{},
	}
}
