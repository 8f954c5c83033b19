// Package cli holds the shared pieces of the twino command line: the
// configuration file with named contexts, result output with jq filtering,
// and terminal styles for the live interview.
//
// The configuration lives in ~/.twino/config.yaml:
//
//	current_context: default
//	contexts:
//	  default:
//	    name: default
//	    openai:
//	      api_key: sk-...
//	    voice: alloy
//	    extractor: chain
//	    gemini:
//	      api_key: ...
//	    archive:
//	      backend: s3
//	      bucket: twino-sessions
package cli
