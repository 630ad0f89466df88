package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Ping tool - test/placeholder
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// Business directory lookup
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_business",
		Description: "Resolve a business name to its directory record with address and website URL",
	}, NewLookupBusinessHandler(deps))

	// Review fetch
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_reviews",
		Description: "Fetch rating metadata and customer reviews for a business",
	}, NewFetchReviewsHandler(deps))

	// Conversation creation
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_conversation",
		Description: "Create a conversation for a business; required before generating a specification",
	}, NewStartConversationHandler(deps))

	// Full generation pipeline
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_spec",
		Description: "Generate or update the website specification document for a conversation",
	}, NewGenerateSpecHandler(deps))

	// Document retrieval
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch the specification document for a conversation",
	}, NewGetDocumentHandler(deps))

	// Conversation listing
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_conversations",
		Description: "List conversations with their titles and businesses",
	}, NewListConversationsHandler(deps))
}
