package supabase_client

const (
	// PostgREST path prefix for stored procedures
	RPCEndpoint = "/rest/v1/rpc/"

	// Stored procedures
	RandomWordsFunction = "get_random_words"

	// Headers
	APIKeyHeader        = "apikey"
	AuthorizationHeader = "Authorization"
	ContentTypeHeader   = "Content-Type"
	AcceptHeader        = "Accept"
	JSONContentType     = "application/json"
)
