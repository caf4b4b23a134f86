package mailer

import (
	"fmt"
)

// Notifier composes the transactional emails the API sends and pushes them
// onto the dispatcher. Every method is best-effort: the caller gets no error
// and the HTTP response never depends on delivery.
type Notifier struct {
	mail        Service
	disp        *Dispatcher
	staffAddr   string
	frontendURL string
}

func NewNotifier(mail Service, disp *Dispatcher, staffAddr, frontendURL string) *Notifier {
	return &Notifier{mail: mail, disp: disp, staffAddr: staffAddr, frontendURL: frontendURL}
}

func (n *Notifier) Welcome(email, name string) {
	subject := "Bienvenue chez AutoParc !"
	text := fmt.Sprintf("Bienvenue %s ! Votre compte AutoParc a été créé avec succès.\n%s", name, n.frontendURL)
	html := fmt.Sprintf(`<h2>Bienvenue %s !</h2>
<p>Nous sommes ravis de vous accueillir chez AutoParc. Votre compte a été créé avec succès.</p>
<p><a href="%s">Accéder à AutoParc</a></p>`, name, n.frontendURL)
	n.disp.Enqueue(func() error {
		return n.mail.Send(email, subject, text, html)
	})
}

func (n *Notifier) PasswordReset(email, name, token string) {
	resetURL := fmt.Sprintf("%s/reset-password/%s", n.frontendURL, token)
	subject := "Réinitialisation de votre mot de passe - AutoParc"
	text := fmt.Sprintf("Bonjour %s,\nPour réinitialiser votre mot de passe, suivez ce lien (valable 10 minutes) : %s", name, resetURL)
	html := fmt.Sprintf(`<h2>Bonjour %s,</h2>
<p>Nous avons reçu une demande de réinitialisation de mot de passe pour votre compte AutoParc.</p>
<p><a href="%s">Réinitialiser mon mot de passe</a></p>
<p>Ce lien expirera dans 10 minutes.</p>`, name, resetURL)
	n.disp.Enqueue(func() error {
		return n.mail.Send(email, subject, text, html)
	})
}

func (n *Notifier) ContactReceived(name, email, subject, message string) {
	mailSubject := fmt.Sprintf("Nouvelle demande de contact : %s", subject)
	text := fmt.Sprintf("Nouvelle demande de %s <%s>\nSujet : %s\n\n%s", name, email, subject, message)
	html := fmt.Sprintf(`<h2>Nouvelle demande de contact</h2>
<p><b>De :</b> %s &lt;%s&gt;</p>
<p><b>Sujet :</b> %s</p>
<p>%s</p>`, name, email, subject, message)
	n.disp.Enqueue(func() error {
		return n.mail.Send(n.staffAddr, mailSubject, text, html)
	})
}

func (n *Notifier) ContactReply(name, email, subject, reply string) {
	mailSubject := fmt.Sprintf("Re: %s", subject)
	text := fmt.Sprintf("Bonjour %s,\n\n%s\n\nL'équipe AutoParc", name, reply)
	html := fmt.Sprintf(`<h2>Bonjour %s,</h2>
<p>%s</p>
<p>L'équipe AutoParc</p>`, name, reply)
	n.disp.Enqueue(func() error {
		return n.mail.Send(email, mailSubject, text, html)
	})
}
