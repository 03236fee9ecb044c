// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram

import (
	"encoding/json"
	"net/http"

	"go.astrophena.name/kazuto/internal/web"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ServeHTTP handles webhook requests from Telegram. Requests without the
// right secret token get 404.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.RespondJSONError(w, r, web.ErrMethodNotAllowed)
		return
	}
	if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != b.secret {
		web.RespondJSONError(w, r, web.ErrNotFound)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		web.RespondJSONError(w, r, web.ErrBadRequest)
		return
	}

	b.handleUpdate(r.Context(), update)
	web.RespondJSON(w, struct {
		OK bool `json:"ok"`
	}{true})
}
