// Package telegram sends event notifications to a chat through the Telegram
// Bot API.
//
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
