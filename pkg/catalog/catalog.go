// Package catalog declares the Akabot settings tree: every group, setting and
// action subcommand exposed by the settings command.
package catalog

import (
	settings "github.com/mldkyt/go-settings"
)

var nameStyles = []settings.Choice{
	{Display: "Username", Value: "username"},
	{Display: "Nickname", Value: "nickname"},
}

var newMemberAges = []settings.Choice{
	{Display: "Disable auto-kick", Value: "0"},
	{Display: "Auto-kick members younger than 1 day", Value: "1"},
	{Display: "Auto-kick members younger than 3 days", Value: "3"},
	{Display: "Auto-kick members younger than 7 days", Value: "7"},
	{Display: "Auto-kick members younger than 14 days", Value: "14"},
	{Display: "Auto-kick members younger than 30 days", Value: "30"},
}

var reactionRoleModes = []settings.Choice{
	{Display: "Normal - Allow adding and removing", Value: "normal"},
	{Display: "Add only", Value: "add"},
	{Display: "Remove only", Value: "remove"},
	{Display: "Only allow a single role", Value: "single"},
}

var mediaTypes = []settings.Choice{
	{Display: "Image only", Value: "image"},
	{Display: "Video only", Value: "video"},
	{Display: "Image and video", Value: "both"},
}

// Default builds the Akabot settings tree. It panics only if the declarations
// below are inconsistent, which the package tests guard against.
func Default() *settings.Tree {
	return Builder().MustBuild()
}

// Builder returns the unbuilt tree so callers can append their own groups.
func Builder() *settings.TreeBuilder {
	return settings.NewTreeBuilder().
		Group(logging()).
		Group(welcome()).
		Group(goodbye()).
		Group(leveling()).
		Group(reactionRoles()).
		Group(antiRaid()).
		Group(mediaOnlyChannels()).
		Group(chatRevive()).
		Group(chatSummary()).
		Group(chatStreak())
}

func logging() *settings.GroupBuilder {
	return settings.NewGroupBuilder("logging").
		Describe("Moderation and audit logging").
		Setting(settings.Channel("channel", "loggingChannel", "The channel to send log messages to."))
}

func welcome() *settings.GroupBuilder {
	return settings.NewGroupBuilder("welcome").
		Describe("Messages sent when a member joins").
		Setting(settings.Channel("channel", "welcomeChannel", "The channel to send welcome messages to.")).
		Setting(settings.StringChoice("name", "welcomeNameType",
			"Whether to use the username or the global nickname of the user.", nameStyles, "nickname")).
		Setting(settings.String("embed-title", "welcomeEmbedTitle",
			"The title of the welcome embed.", "Welcome, {user}")).
		Setting(settings.String("embed-message", "welcomeEmbedMessage",
			"The message of the welcome embed.", "Welcome {user} to this server!"))
}

func goodbye() *settings.GroupBuilder {
	return settings.NewGroupBuilder("goodbye").
		Describe("Messages sent when a member leaves").
		Setting(settings.Channel("channel", "goodbyeChannel", "The channel to send goodbye messages to.")).
		Setting(settings.StringChoice("name", "goodbyeNameType",
			"Whether to use the username or the global nickname of the user.", nameStyles, "nickname")).
		Setting(settings.String("embed-title", "goodbyeEmbedTitle",
			"The title of the goodbye embed.", "Goodbye {user}")).
		Setting(settings.String("embed-message", "goodbyeEmbedMessage",
			"The message of the goodbye embed.", "Goodbye {user}, hope you enjoyed being in this server.")).
		Setting(settings.String("embed-message-kick", "goodbyeEmbedMessageKick",
			"Customized message for kicked people.", "Goodbye {user}, you were kicked from this server for {reason}")).
		Setting(settings.String("embed-message-ban", "goodbyeEmbedMessageBan",
			"Customized message for banned people.", "Goodbye {user}, you were banned from this server for {reason}"))
}

func leveling() *settings.GroupBuilder {
	return settings.NewGroupBuilder("leveling").
		Describe("Experience points and level rewards").
		Setting(settings.Channel("channel", "levelingChannel", "The channel to announce level ups in.")).
		Action(settings.NewAction("add-reward", "Add a reward for a level",
			settings.Param{Name: "role", Description: "The role to give to members at the level", Type: settings.ParamRole, Required: true},
			settings.Param{Name: "level", Description: "The level to add the role at", Type: settings.ParamNumber, Required: true},
		)).
		Action(settings.NewAction("remove-reward", "Remove a reward on a specified level.",
			settings.Param{Name: "level", Description: "The level to remove at", Type: settings.ParamNumber, Required: true},
		)).
		Setting(settings.Toggle("weekend-boost", "levelingWeekendBoost", "Double points on weekend", true)).
		Setting(settings.Toggle("christmas-boost", "levelingChristmasBoost", "Quadruple points on Christmas", true))
}

func reactionRoles() *settings.GroupBuilder {
	params := []settings.Param{
		{Name: "message", Description: "The message", Type: settings.ParamString, Required: true},
		{Name: "mode", Description: "Mode to use this in", Type: settings.ParamString, Required: true, Choices: reactionRoleModes},
		{Name: "role", Description: "The role", Type: settings.ParamRole, Required: true},
	}
	for i := 2; i <= 9; i++ {
		params = append(params, settings.Param{
			Name:        "role-" + string(rune('0'+i)),
			Description: "The role",
			Type:        settings.ParamRole,
		})
	}
	return settings.NewGroupBuilder("reactionroles").
		Describe("Roles granted by reacting to a message").
		Action(settings.NewAction("new", "Create a reaction role", params...))
}

func antiRaid() *settings.GroupBuilder {
	return settings.NewGroupBuilder("antiraid").
		Describe("Protection against raids and spam").
		Setting(settings.StringChoice("newmembers", "AntiRaidNewMembers",
			"How old does a member have to be to be on this server", newMemberAges, "0")).
		Setting(settings.Toggle("nopfp", "AntiRaidNoPFP", "Kick members with no profile picture", false)).
		Setting(settings.Toggle("spamdelete", "AntiRaidSpamDelete", "Delete messages from spammers", false)).
		Setting(settings.Toggle("spamtimeout", "AntiRaidSpamTimeout", "Timeout spammers for a short period", false)).
		Setting(settings.Toggle("spamalert", "AntiRaidSpamSendAlert", "Tell the spammer to stop spamming", false))
}

func mediaOnlyChannels() *settings.GroupBuilder {
	return settings.NewGroupBuilder("mediaonlychannels").
		Describe("Channels restricted to images and videos").
		Action(settings.NewAction("set", "Mark a channel as image only",
			settings.Param{Name: "channel", Description: "The channel", Type: settings.ParamChannel, Required: true},
			settings.Param{Name: "type", Description: "Allow image, video or both", Type: settings.ParamString, Required: true, Choices: mediaTypes},
			settings.Param{Name: "allow-replies", Description: "Allow replies", Type: settings.ParamBoolean},
		)).
		Action(settings.NewAction("remove", "Remove a channel from media only list",
			settings.Param{Name: "channel", Description: "The channel to remove", Type: settings.ParamChannel, Required: true},
		))
}

func chatRevive() *settings.GroupBuilder {
	return settings.NewGroupBuilder("chatrevive").
		Describe("Pings sent when a channel goes quiet").
		Action(settings.NewAction("role", "Set the role to ping when a channel is revived",
			settings.Param{Name: "role", Description: "The role", Type: settings.ParamRole, Required: true},
		)).
		Action(settings.NewAction("set", "Add or update channel's automatic revive settings",
			settings.Param{Name: "channel", Description: "The channel", Type: settings.ParamChannel, Required: true},
			settings.Param{Name: "time", Description: "Time in hours", Type: settings.ParamNumber, Required: true},
		)).
		Action(settings.NewAction("remove", "Remove channel's automatic revive settings",
			settings.Param{Name: "channel", Description: "The channel to remove", Type: settings.ParamChannel, Required: true},
		))
}

func chatSummary() *settings.GroupBuilder {
	return settings.NewGroupBuilder("chatsummary").
		Describe("Daily chat activity summaries").
		Action(settings.NewAction("add-channel", "Add a channel to summarize daily",
			settings.Param{Name: "channel", Description: "Channel to add", Type: settings.ParamChannel, Required: true},
		)).
		Action(settings.NewAction("remove-channel", "Remove a channel from daily summary",
			settings.Param{Name: "channel", Description: "Channel to remove", Type: settings.ParamChannel, Required: true},
		)).
		Setting(settings.StringChoice("include-special", "chatSummarySpecial",
			`Include counting of "owo", ":3" and "meow"s`,
			[]settings.Choice{{Display: "Yes", Value: "Yes"}, {Display: "No", Value: "No"}}, "No")).
		Setting(settings.Integer("top-users", "chatSummaryTopUsers", "How many top users to show", 5,
			settings.WithMinimum(0), settings.WithMaximum(10)))
}

func chatStreak() *settings.GroupBuilder {
	return settings.NewGroupBuilder("chatstreak").
		Describe("Daily chat streaks").
		Action(settings.NewAction("status-message", "Set whether or not to show a message when you achieve a streak",
			settings.Param{Name: "enabled", Description: "Enabled", Type: settings.ParamBoolean, Required: true},
		))
}
