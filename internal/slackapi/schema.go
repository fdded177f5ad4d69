package slackapi

// EndpointSchema lists the argument names an endpoint accepts.
type EndpointSchema struct {
	Required []string
	Optional []string
}

// Fields returns the required names followed by the optional ones.
func (s EndpointSchema) Fields() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

// Schema maps an endpoint name to its accepted arguments. Endpoints missing
// from the table are unconstrained.
type Schema map[string]EndpointSchema

// Clone returns a deep copy so callers can't mutate a client's table.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for name, es := range s {
		out[name] = EndpointSchema{
			Required: append([]string(nil), es.Required...),
			Optional: append([]string(nil), es.Optional...),
		}
	}
	return out
}

// DefaultSchema returns a fresh copy of the endpoints the client knows about.
func DefaultSchema() Schema {
	return Schema{
		"rtm.start": {
			Required: []string{"token"},
			Optional: []string{"simple_latest", "no_unreads", "mpim_aware"},
		},
		"chat.postMessage": {
			Required: []string{"token", "channel", "text"},
			Optional: []string{
				"parse", "link_names", "attachments", "unfurl_links", "unfurl_media",
				"username", "as_user", "icon_url", "icon_emoji",
			},
		},
		"oauth.access": {
			Required: []string{"client_id", "client_secret", "code"},
			Optional: []string{"redirect_uri"},
		},
		"team.info": {
			Required: []string{"token"},
		},
		"im.list": {
			Required: []string{"token"},
		},
		"users.list": {
			Required: []string{"token"},
			Optional: []string{"presence"},
		},
		"users.info": {
			Required: []string{"token", "user"},
		},
	}
}
