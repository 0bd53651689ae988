package session

import (
	"time"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/loop"
)

const (
	// NotifyID is the id of the notification element.
	NotifyID = "multi-select-notify"
	// DefaultNotifyDuration is how long a notification stays visible.
	DefaultNotifyDuration = 2200 * time.Millisecond

	notifyStyle = "position:fixed;top:20px;right:20px;z-index:2147483647;background:#333;color:#fff;" +
		"padding:10px 18px;border-radius:5px;font-size:14px;font-family:sans-serif;"
)

// notifier shows one transient message at a time in the page.
type notifier struct {
	doc      *dom.Document
	loop     *loop.Loop
	duration time.Duration
	timer    int
	last     string
	changed  func()
}

func newNotifier(doc *dom.Document, l *loop.Loop, d time.Duration, changed func()) *notifier {
	return &notifier{doc: doc, loop: l, duration: d, changed: changed}
}

// show displays msg, replacing any message already up, and schedules its
// removal.
func (n *notifier) show(msg string) {
	n.last = msg
	defer n.changed()
	body := n.doc.Body()
	if body == nil {
		return
	}

	el := n.doc.GetElementById(NotifyID)
	if el == nil {
		el = n.doc.CreateElement("div")
		el.SetId(NotifyID)
		el.SetAttribute("style", notifyStyle)
		body.AsNode().AppendChild(el.AsNode())
	}
	el.SetTextContent(msg)

	if n.timer != 0 {
		n.loop.ClearTimeout(n.timer)
	}
	n.timer = n.loop.SetTimeout(func() {
		n.timer = 0
		n.last = ""
		if el := n.doc.GetElementById(NotifyID); el != nil {
			el.Remove()
		}
		n.changed()
	}, n.duration)
}

// LastNotification returns the notification currently shown, if any.
func (s *Session) LastNotification() string {
	return s.notifier.last
}
