package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"confreg/internal/registration/models"
)

// Event describes the conference in outbound messages.
type Event struct {
	Title string
	Dates string
	Venue string
}

var userTicketTmpl = template.Must(template.New("ticket").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #0a6ebd; padding: 20px; text-align: center; color: white;">
    <h2>{{.Event.Title}}</h2>
    <p>Entry Ticket</p>
  </div>
  <div style="padding: 20px; border: 1px solid #ddd;">
    <p>Hello <b>{{.Reg.Name}}</b>,</p>
    <p>Your entry ticket for <b>{{.Event.Title}}</b> is ready. Registration ID: <b>{{.Reg.RegistrationID}}</b>.</p>
    <p>This event encompasses the scientific sessions, Trade for practitioners &amp; students, cultural events and Banquet for socialising fellow dentists.</p>
    {{if .CardURL}}<div style="text-align: center; margin: 30px 0;">
      <a href="{{.CardURL}}" style="background-color: #0a6ebd; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Download Entry Ticket</a>
      <p style="margin-top: 10px; font-size: 12px; color: #666;">(Please see the attachment below)</p>
    </div>{{end}}
    <div style="background-color: #f9f9f9; padding: 15px; border-left: 4px solid #0a6ebd;">
      <h4 style="margin-top: 0;">Event Details:</h4>
      <p><b>Dates:</b> {{.Event.Dates}}</p>
      <p><b>Venue:</b> {{.Event.Venue}}</p>
    </div>
    <p style="margin-top: 20px;">Please keep this ticket handy for entry.</p>
  </div>
</div>`))

var adminAlertTmpl = template.Must(template.New("admin").Parse(`
<h3>New Paid Registration</h3>
<p><b>Name:</b> {{.Reg.Title}} {{.Reg.Name}}</p>
<p><b>Reg ID:</b> {{.Reg.RegistrationID}}</p>
<p><b>Type:</b> {{.Reg.Category}}</p>
<p><b>Mobile:</b> {{.Reg.Mobile}}</p>
<p><b>Email:</b> {{.Reg.Email}}</p>
<p><b>Amount:</b> &#8377;{{.Reg.Amount}}</p>
<p><b>Payment ID:</b> {{.Reg.GatewayPaymentID}}</p>
{{if .Reg.UpgradeOf}}<p><b>Upgraded from:</b> {{.Reg.UpgradeOf}}</p>{{end}}
<hr>
<h3>Additional Details</h3>
{{with .Reg.Organization}}<p><b>Organization:</b> {{.}}</p>{{end}}
{{with .Reg.Designation}}<p><b>Designation:</b> {{.}}</p>{{end}}
{{with .Reg.DCIRegNumber}}<p><b>DCI Reg Number:</b> {{.}}</p>{{end}}
{{if .Reg.StudyYear}}<p><b>College:</b> {{.Reg.College}}</p><p><b>Year:</b> {{.Reg.StudyYear}}</p>{{end}}
{{with .Reg.Address}}<p><b>Address:</b> {{.}}</p>{{end}}
{{with .Reg.State}}<p><b>State:</b> {{.}}</p>{{end}}
{{with .Reg.City}}<p><b>City:</b> {{.}}</p>{{end}}
{{with .Reg.Pincode}}<p><b>Pincode:</b> {{.}}</p>{{end}}
{{with .Reg.Comments}}<p><b>Comments:</b> {{.}}</p>{{end}}
<br>
<p><em>Please see attached registration card.</em></p>`))

var certificateTmpl = template.Must(template.New("certificate").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <p>Dear <b>{{.Name}}</b>,</p>
  <p>Thank you for participating in <b>{{.Event.Title}}</b>. Your certificate of participation is attached.</p>
</div>`))

type emailData struct {
	Event   Event
	Reg     models.Registration
	Name    string
	CardURL string
}

func renderHTML(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
