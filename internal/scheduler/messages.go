package scheduler

// Operator notifications sent by workers.
const (
	msgForwarded     = "Successfully forwarded the post to %d"
	msgForbidden     = "Forbidden to send the message to group %d"
	msgNotFound      = "Group with ID %d doesn't exist! Skipping..."
	msgPrivate       = "The group/channel %d is private and you lack permission to access it. Another reason may be that you were banned from it. Skipping..."
	msgShortInterval = "Group with ID %d has less than %d seconds of sleep time! Sleeping for %d minutes..."
	msgWorkerStopped = "Delivery to group %d stopped after an unexpected error: %v\nUse update to restart it."
)

// Command replies.
const (
	msgAdded          = "Group %d added with interval %d seconds."
	msgExists         = "Group with ID %d already exists in active groups! Skipping..."
	msgUpdated        = "Group %d interval set to %d seconds."
	msgRestarted      = "Delivery to group %d restarted."
	msgNotActive      = "Group_id %d is not in active groups! Skipping..."
	msgDeleted        = "Group %d removed from active groups."
	msgNotExists      = "Group with ID %d doesn't exist in active groups! Skipping..."
	msgSaveFailed     = "Failed to save group %d: %v"
	msgBelowMinimum   = "Time is less than %d seconds! Changes were declined."
	msgAboveMaximum   = "Time is more than %d seconds! Changes were declined."
	msgSetAll         = "Interval for all %d groups set to %d seconds."
	msgBroadcasting   = "Broadcasting to %d groups."
	msgStopped        = "Delivery to group %d is stopped. Use update to restart it."
	msgNothingToSend  = "No qualifying message to broadcast yet."
	msgNoGroups       = "No active groups."
	msgActiveLine     = "ID: %d Title: %s Time: %d"
	msgActivePrivate  = "ID: %d is private (seems like you were banned from it)"
	msgCandidateLine  = "Title: %s, ID: %d"
	msgNoCandidates   = "No recent groups found."
	msgCandidatesFail = "Failed to list recent chats: %v"
	msgNotStarted     = "Scheduler is not running yet, try again later."
)

const helpText = `Destinations:
add <id=interval,...> - add groups (interval in seconds)
update <id=interval,...> - change intervals
delete <id,...> - remove groups
set_all <seconds> - one interval for every group

Broadcasting:
send - forward the current post to every group now
list_active - show groups with title and interval
list_candidates - show groups the bot has seen recently`
