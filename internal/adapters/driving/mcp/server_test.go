package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect opens an in-memory client session against the server.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewServer_MissingSearch(t *testing.T) {
	server, err := NewServer(&Ports{})

	require.Error(t, err)
	assert.Nil(t, server)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestNewServer_SearchOnly(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	session := connect(t, server)

	assert.ElementsMatch(t, []string{"search"}, toolNames(t, session))

	result := session.InitializeResult()
	require.NotNil(t, result)
	assert.Equal(t, "sercha-rag", result.ServerInfo.Name)
	assert.Contains(t, result.Instructions, "search")
	assert.NotContains(t, result.Instructions, "cache_lookup")
}

func TestNewServer_WithCache(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}, Cache: &mockCacheService{}})
	require.NoError(t, err)

	session := connect(t, server)

	assert.ElementsMatch(t, []string{"search", "cache_lookup", "cache_store"}, toolNames(t, session))
	assert.Contains(t, session.InitializeResult().Instructions, "cache_lookup")
}

func TestNewServer_Resources(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}})
	require.NoError(t, err)
	session := connect(t, server)
	ctx := context.Background()

	resources, err := session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resources.Resources, 1)
	assert.Equal(t, "sercha-rag://settings", resources.Resources[0].URI)

	templates, err := session.ListResourceTemplates(ctx, nil)
	require.NoError(t, err)
	uris := make([]string, 0, len(templates.ResourceTemplates))
	for _, tmpl := range templates.ResourceTemplates {
		uris = append(uris, tmpl.URITemplate)
	}
	assert.ElementsMatch(t, []string{"sercha-rag://documents/{documentId}", "sercha-rag://chunks/{chunkId}"}, uris)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		err   error
	}{
		{"nil search service", &Ports{}, ErrMissingSearchService},
		{"search only", &Ports{Search: &mockSearchService{}}, nil},
		{
			name: "all ports",
			ports: &Ports{
				Search:   &mockSearchService{},
				Cache:    &mockCacheService{},
				Document: &mockDocumentService{},
				Settings: &mockSettingsService{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
