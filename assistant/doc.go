// Copyright (c) Graphwise. All rights reserved.

// Package assistant provides a [ttyg.AssistantClient] implementation backed
// by the OpenAI Assistants API v2.
//
// Create a client with [New]:
//
//	client := assistant.New(apiKey)
//
// For Azure OpenAI deployments, point the client at the deployment endpoint
// and either pass the key through the api-key header or attach an Azure AD
// credential:
//
//	client := assistant.New("",
//	    assistant.WithBaseURL(endpoint),
//	    assistant.WithAPIVersion("2024-05-01-preview"),
//	    assistant.WithAzureCredential(cred),
//	)
//
// Transport failures surface as [ttyg.ErrRemoteUnavailable]; HTTP error
// responses are mapped to [ttyg.ServiceError] values wrapping
// [ttyg.ErrNotFound] or [ttyg.ErrAssistantService].
package assistant
