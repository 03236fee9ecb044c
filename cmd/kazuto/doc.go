// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Kazuto is a Telegram bot that chats as a fictional character.

When mentioned in a group or written to in private, Kazuto appends the message
to the conversation history, builds a prompt from the character description,
example dialogue and the latest history of the chat, asks a completion API for
a reply, records the reply and sends it back. Completion API keys are used in
round-robin order. History lives in a Google Sheets worksheet by default.

In production mode Kazuto registers a webhook at https://<host>/telegram and
serves it. Otherwise it receives updates with long polling.

# Usage

	$ kazuto [flags...]

# Configuration

Every flag can be set with an environment variable:

	TG_TOKEN                       Telegram Bot API token (required).
	TG_SECRET                      Secret token of webhook requests.
	GROQ_API_KEY_1, GROQ_API_KEY_2 Completion API keys.
	GROQ_API_KEYS                  Comma-separated completion API keys.
	COMPLETION_PROVIDER            "openai" (default) or "gemini".
	COMPLETION_BASE_URL            OpenAI-compatible API endpoint (default Groq).
	COMPLETION_MODEL               Model name.
	HISTORY_BACKEND                "sheets" (default), "sqlite", "postgres" or "memory".
	GOOGLE_SERVICE_ACCOUNT_BASE64  Base64-encoded service account JSON key.
	GOOGLE_SPREADSHEET_NAME        Spreadsheet name (default YokoiKazuto_ChatHistory).
	GOOGLE_WORKSHEET_NAME          Worksheet name (default Sheet1).
	DATABASE_URL                   PostgreSQL connection string or SQLite file.
	PERSONA_FILE                   Character definition in txtar format.
	HOST                           Public host name for the webhook.
	ADDR, PORT                     Address or port to listen on (default localhost:3000).

Without completion API keys Kazuto still starts, but answers every message
with a notice that it's not configured. History errors are logged and never
prevent a reply.
*/
package main
