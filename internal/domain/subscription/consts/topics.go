package consts

const (
	TopicSubscriptionCommands = "subscription.commands"
	TopicSubscriptionResults  = "subscription.results"
	TopicSubscriptionChanged  = "subscription.changed"
)

var ConsumerTopics = []string{
	TopicSubscriptionCommands,
}

// Command types carried by subscription.commands
const (
	CommandCreatureAdd    = "creature_add"
	CommandCreatureRemove = "creature_remove"
	CommandRaidAdd        = "raid_add"
	CommandRaidRemove     = "raid_remove"
	CommandBulkRequest    = "bulk_request"
	CommandBulkConfirm    = "bulk_confirm"
	CommandSetEnabled     = "set_enabled"
	CommandInfo           = "info"
)
