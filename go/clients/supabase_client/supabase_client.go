package supabase_client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcdev12/wordquest/go/clients"
)

type SupabaseClient struct {
	*clients.BaseClient
}

// NewSupabaseClient creates a PostgREST client for the project at projectURL
// authenticated with the given anon or service key.
func NewSupabaseClient(projectURL, apiKey string) *SupabaseClient {
	client := &SupabaseClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(projectURL, "/")),
	}

	client.SetHeader(APIKeyHeader, apiKey)
	client.SetHeader(AuthorizationHeader, "Bearer "+apiKey)
	client.SetHeader(ContentTypeHeader, JSONContentType)
	client.SetHeader(AcceptHeader, JSONContentType)

	return client
}

// RPC calls the stored procedure fn with named params and decodes the result into out.
func (c *SupabaseClient) RPC(ctx context.Context, fn string, params interface{}, out interface{}) error {
	body, err := c.PostJSON(ctx, RPCEndpoint+fn, params)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", fn, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal rpc %s response: %w, raw response: %s", fn, err, string(body))
	}
	return nil
}
