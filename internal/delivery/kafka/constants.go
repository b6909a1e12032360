package kafka

const (
	TopicSessionReady     = "session.ready"
	TopicSessionStarted   = "session.started"
	TopicSessionCompleted = "session.completed"
	TopicSessionCancelled = "session.cancelled"

	TopicAttendanceJoined = "attendance.joined"
	TopicAttendanceLeft   = "attendance.left"

	TopicMeetingParticipantJoined = "meeting.participant_joined"
	TopicMeetingParticipantLeft   = "meeting.participant_left"
)
