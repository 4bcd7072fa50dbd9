// Package config loads docsync configuration.
//
// Values are resolved in this order, later sources overriding earlier ones:
//
//  1. Built-in defaults
//  2. docsync.yaml (or the file named by --config)
//  3. A .env file in the working directory, which never overrides variables
//     already present in the environment
//  4. Environment variables
//
// The legacy variable names NEXT_PUBLIC_SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY
// and OPENAI_KEY are honoured when the DOCSYNC_* equivalents are unset.
package config
