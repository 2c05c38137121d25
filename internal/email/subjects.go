package email

const (
	subjectGuestConfirmationFmt = "Your reservation at %s is confirmed"
	subjectGuestUpdateFmt       = "Your reservation at %s has been updated"
	subjectGuestCancellationFmt = "Your reservation at %s has been cancelled"
	subjectGuestReminderFmt     = "Reminder: your reservation at %s"
	subjectTenantNotification   = "New reservation activity"
)
