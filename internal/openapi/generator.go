// Package openapi renders the OpenAPI 3.1 description of the site API. The
// document is generated rather than hand-maintained so it cannot drift from
// the router.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the full API description. baseURL may be empty for
// relative servers; version is stamped into the info block.
func Generate(baseURL, version string) *openapi3.T {
	if baseURL == "" {
		baseURL = "/"
	}
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Atelier API",
			Description: "Marketing site and back-office API for the agency portfolio.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "admin_token",
		},
	}

	addSchemas(doc)
	doc.Paths = openapi3.NewPaths()
	addSystemPaths(doc)
	addAuthPaths(doc)
	addProjectPaths(doc)
	addContactPaths(doc)
	addSEOPaths(doc)
	addAnalyticsPaths(doc)

	return doc
}

func addSchemas(doc *openapi3.T) {
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    intSchema(),
							"message": strSchema(),
						},
					},
				},
			},
		},
	}

	doc.Components.Schemas["Project"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":          strSchema(),
				"title":       strSchema(),
				"slug":        strSchema(),
				"description": strSchema(),
				"category":    strSchema(),
				"tags": {Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: strSchema(),
				}},
				"image_url":  strSchema(),
				"live_url":   strSchema(),
				"featured":   boolSchema(),
				"published":  boolSchema(),
				"sort_order": intSchema(),
				"created_at": strSchema(),
				"updated_at": strSchema(),
			},
		},
	}

	doc.Components.Schemas["ContactMessage"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":         intSchema(),
				"name":       strSchema(),
				"email":      strSchema(),
				"company":    strSchema(),
				"message":    strSchema(),
				"read":       boolSchema(),
				"created_at": strSchema(),
			},
		},
	}

	doc.Components.Schemas["PageMeta"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"page":        strSchema(),
				"title":       strSchema(),
				"description": strSchema(),
				"keywords":    strSchema(),
				"og_image":    strSchema(),
				"updated_at":  strSchema(),
			},
		},
	}
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness check",
			OperationID: "healthz",
			Responses:   newResponses("200", "Service is up", objectSchema()),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Readiness check",
			OperationID: "readyz",
			Responses:   newResponses("200", "Database reachable", objectSchema()),
		},
	})
}

func addAuthPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/admin/registration-status", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Check whether first-run registration is open",
			OperationID: "registration_status",
			Responses:   newResponses("200", "Registration status", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/register", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Create the admin account",
			Description: "Only one admin account can ever exist; a second attempt returns 409.",
			OperationID: "register",
			RequestBody: jsonBody("Admin credentials", objectProps(openapi3.Schemas{
				"username": strSchema(),
				"password": strSchema(),
				"email":    strSchema(),
			})),
			Responses: newResponses("201", "Account created, session issued", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Log in",
			OperationID: "login",
			RequestBody: jsonBody("Credentials", objectProps(openapi3.Schemas{
				"username": strSchema(),
				"password": strSchema(),
			})),
			Responses: newResponses("200", "Session token issued", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/logout", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Log out",
			OperationID: "logout",
			Responses:   newResponses("200", "Session cookie cleared", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/verify", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Verify the current session token",
			OperationID: "verify",
			Security:    adminSecurity(),
			Responses:   newResponses("200", "Token is valid", objectSchema()),
		},
	})
}

func addProjectPaths(doc *openapi3.T) {
	projectRef := openapi3.NewSchemaRef("#/components/schemas/Project", nil)
	listRef := listSchema(projectRef)

	doc.Paths.Set("/api/projects", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "List published projects",
			OperationID: "list_public_projects",
			Responses:   newResponses("200", "Published projects", listRef),
		},
	})
	doc.Paths.Set("/api/projects/{projectID}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Get one published project",
			OperationID: "get_public_project",
			Parameters:  pathParam("projectID", "Project id (UUID)"),
			Responses:   newResponses("200", "The project", projectRef),
		},
	})

	doc.Paths.Set("/api/admin/projects", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "List all projects including drafts",
			OperationID: "list_projects",
			Security:    adminSecurity(),
			Responses:   newResponses("200", "All projects", listRef),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Create a project",
			OperationID: "create_project",
			Security:    adminSecurity(),
			RequestBody: jsonBody("Project fields", projectRef),
			Responses:   newResponses("201", "Created project", projectRef),
		},
	})
	doc.Paths.Set("/api/admin/projects/{projectID}", &openapi3.PathItem{
		Put: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Update a project",
			Description: "Absent fields keep their stored values.",
			OperationID: "update_project",
			Security:    adminSecurity(),
			Parameters:  pathParam("projectID", "Project id (UUID)"),
			RequestBody: jsonBody("Fields to change", projectRef),
			Responses:   newResponses("200", "Updated project", projectRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Delete a project",
			OperationID: "delete_project",
			Security:    adminSecurity(),
			Parameters:  pathParam("projectID", "Project id (UUID)"),
			Responses:   newResponses("200", "Project deleted", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/projects/bulk-delete", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Delete several projects",
			OperationID: "bulk_delete_projects",
			Security:    adminSecurity(),
			RequestBody: jsonBody("Project ids", objectProps(openapi3.Schemas{
				"ids": {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: strSchema()}},
			})),
			Responses: newResponses("200", "Delete count", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/projects/bulk-publish", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"projects"},
			Summary:     "Publish or unpublish several projects",
			OperationID: "bulk_publish_projects",
			Security:    adminSecurity(),
			RequestBody: jsonBody("Project ids and target state", objectProps(openapi3.Schemas{
				"ids":       {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: strSchema()}},
				"published": boolSchema(),
			})),
			Responses: newResponses("200", "Update count", objectSchema()),
		},
	})
}

func addContactPaths(doc *openapi3.T) {
	contactRef := openapi3.NewSchemaRef("#/components/schemas/ContactMessage", nil)

	doc.Paths.Set("/api/contact", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Submit the contact form",
			OperationID: "submit_contact",
			RequestBody: jsonBody("Contact form fields", objectProps(openapi3.Schemas{
				"name":    strSchema(),
				"email":   strSchema(),
				"company": strSchema(),
				"message": strSchema(),
			})),
			Responses: newResponses("201", "Message received", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/contacts", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "List inbox messages",
			OperationID: "list_contacts",
			Security:    adminSecurity(),
			Responses:   newResponses("200", "Inbox messages", listSchema(contactRef)),
		},
	})
	doc.Paths.Set("/api/admin/contacts/{messageID}", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Delete an inbox message",
			OperationID: "delete_contact",
			Security:    adminSecurity(),
			Parameters:  pathParam("messageID", "Message id"),
			Responses:   newResponses("200", "Message deleted", objectSchema()),
		},
	})
	doc.Paths.Set("/api/admin/contacts/{messageID}/read", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Mark an inbox message as read",
			OperationID: "mark_contact_read",
			Security:    adminSecurity(),
			Parameters:  pathParam("messageID", "Message id"),
			Responses:   newResponses("200", "Message marked read", objectSchema()),
		},
	})
}

func addSEOPaths(doc *openapi3.T) {
	metaRef := openapi3.NewSchemaRef("#/components/schemas/PageMeta", nil)

	doc.Paths.Set("/api/seo/{page}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"seo"},
			Summary:     "Get SEO metadata for a page",
			OperationID: "get_page_meta",
			Parameters:  pathParam("page", "Page key, e.g. home"),
			Responses:   newResponses("200", "Page metadata", metaRef),
		},
	})
	doc.Paths.Set("/api/admin/seo", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"seo"},
			Summary:     "List SEO metadata for every page",
			OperationID: "list_page_meta",
			Security:    adminSecurity(),
			Responses:   newResponses("200", "All page metadata", listSchema(metaRef)),
		},
	})
	doc.Paths.Set("/api/admin/seo/{page}", &openapi3.PathItem{
		Put: &openapi3.Operation{
			Tags:        []string{"seo"},
			Summary:     "Create or update SEO metadata for a page",
			OperationID: "upsert_page_meta",
			Security:    adminSecurity(),
			Parameters:  pathParam("page", "Page key, e.g. home"),
			RequestBody: jsonBody("Metadata fields", metaRef),
			Responses:   newResponses("200", "Saved metadata", metaRef),
		},
	})
}

func addAnalyticsPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/admin/analytics/summary", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"analytics"},
			Summary:     "Dashboard summary",
			Description: "Content counts plus page view counters.",
			OperationID: "analytics_summary",
			Security:    adminSecurity(),
			Responses:   newResponses("200", "Summary", objectSchema()),
		},
	})
}

// --- small builders ---

func strSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
}

func objectSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func objectProps(props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
	}}
}

func listSchema(item *openapi3.SchemaRef) *openapi3.SchemaRef {
	return objectProps(openapi3.Schemas{
		"resource": {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: item}},
		"meta":     objectSchema(),
	})
}

func adminSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{
		{"bearerAuth": {}},
		{"cookieAuth": {}},
	}
}

func pathParam(name, description string) openapi3.Parameters {
	p := openapi3.NewPathParameter(name).
		WithDescription(description).
		WithSchema(openapi3.NewStringSchema())
	return openapi3.Parameters{&openapi3.ParameterRef{Value: p}}
}

func jsonBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &description,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Unauthorized",
		"500": "Internal server error",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
