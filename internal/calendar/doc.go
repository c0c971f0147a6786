// Package calendar creates Google Calendar events for meetings found in
// email.
//
// Every meeting becomes a one-hour event on the primary calendar. Start and
// end are sent as wall-clock date-times together with the meeting's IANA
// time zone, so the Calendar API does the zone conversion.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, logger, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//
//	id, err := client.CreateMeeting(ctx, triage.MeetingRecord{
//	    Title:    "Project sync",
//	    Date:     "2025-03-10",
//	    Time:     "15:00:00",
//	    Timezone: "Asia/Kolkata",
//	})
package calendar
