package notify

import (
	"strconv"
	"strings"
)

// AppName is the application name shown by the notification daemon.
const AppName = "HPC Job Monitor"

// LinuxCommand renders n for notify-send (libnotify).
func LinuxCommand(n Notification) Command {
	args := []string{
		"--app-name=" + AppName,
		"--urgency=" + n.Urgency.String(),
		"--expire-time=" + strconv.FormatInt(n.Expiry.Milliseconds(), 10),
	}
	if n.Icon != "" {
		args = append(args, "--icon="+n.Icon)
	}
	args = append(args, "--", n.Title, n.Body)
	return Command{Name: "notify-send", Args: args}
}

// LinuxSound plays a file through PulseAudio/PipeWire.
func LinuxSound(path string) Command {
	return Command{Name: "paplay", Args: []string{path}}
}

// appleScriptQuote renders s as an AppleScript string literal.
func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// DarwinCommand renders n for osascript's "display notification". macOS
// has no urgency levels; critical notifications get an alert sound.
func DarwinCommand(n Notification) Command {
	script := "display notification " + appleScriptQuote(n.Body) +
		" with title " + appleScriptQuote(AppName) +
		" subtitle " + appleScriptQuote(n.Title)
	if n.Urgency == UrgencyCritical {
		script += ` sound name "Basso"`
	}
	return Command{Name: "osascript", Args: []string{"-e", script}}
}

// DarwinSound plays a file with afplay.
func DarwinSound(path string) Command {
	return Command{Name: "afplay", Args: []string{path}}
}

// windowsToastScript reads the title and body from the environment so no
// user text is ever spliced into the script.
const windowsToastScript = `[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$tpl = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$txt = $tpl.GetElementsByTagName('text')
$txt.Item(0).AppendChild($tpl.CreateTextNode($env:JOBTRAY_TITLE)) > $null
$txt.Item(1).AppendChild($tpl.CreateTextNode($env:JOBTRAY_BODY)) > $null
$toast = $tpl.DocumentElement
$toast.SetAttribute('duration', $env:JOBTRAY_DURATION)
if ($env:JOBTRAY_DURATION -eq 'long') { $toast.SetAttribute('scenario', 'reminder') }
$n = [Windows.UI.Notifications.ToastNotification]::new($tpl)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier($env:JOBTRAY_APP).Show($n)`

// WindowsCommand renders n as a PowerShell toast. Critical notifications use
// the long duration and reminder scenario so they stay until dismissed.
func WindowsCommand(n Notification) Command {
	duration := "short"
	if n.Urgency == UrgencyCritical {
		duration = "long"
	}
	return Command{
		Name: "powershell",
		Args: []string{"-NoProfile", "-NonInteractive", "-Command", windowsToastScript},
		Env: []string{
			"JOBTRAY_APP=" + AppName,
			"JOBTRAY_TITLE=" + n.Title,
			"JOBTRAY_BODY=" + n.Body,
			"JOBTRAY_DURATION=" + duration,
		},
	}
}

// WindowsSound plays a .wav file synchronously.
func WindowsSound(path string) Command {
	return Command{
		Name: "powershell",
		Args: []string{"-NoProfile", "-NonInteractive", "-Command", "(New-Object Media.SoundPlayer $env:JOBTRAY_SOUND).PlaySync()"},
		Env:  []string{"JOBTRAY_SOUND=" + path},
	}
}
