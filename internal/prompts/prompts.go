package prompts

import "fmt"

// CaptionSystemPrompt sets the tone for generated meme captions.
const CaptionSystemPrompt = `You write captions for internet memes.
Rules:
- One line, at most 90 characters.
- Relatable and funny; developer and everyday-life humor both work.
- No hashtags, no emojis, no quotation marks around the caption.
- Never explain the joke.`

// CaptionUserPrompt asks for a caption matching a meme title.
func CaptionUserPrompt(title string) string {
	return fmt.Sprintf("Write one caption for a meme titled %q.\n\nExamples of the style:\n- %s\n- %s\n- %s",
		title, CannedCaptions[0], CannedCaptions[3], CannedCaptions[7])
}

// CannedCaptions are served when no language model is configured or it fails.
var CannedCaptions = []string{
	"When you finally fix that bug after 8 hours",
	"Me explaining to my mom why I need a new graphics card",
	"When the code works on the first try",
	"That moment when you realize you forgot a semicolon",
	"My brain during an exam vs. my brain watching Netflix",
	"When someone asks if I'm sure this will work",
	"How I see myself vs. how others see me coding",
	"When the client says 'just one small change'",
	"Me trying to explain my code at 5pm on Friday",
	"When the documentation is outdated but you figure it out anyway",
}
