package gemini

import (
	"fmt"
	"strings"

	"github.com/meikuraledutech/flowcanvas"
)

const stylePrompt = `Analyze this design reference image. Return a JSON object with:
1. 'styleDescription': A concise but descriptive summary of the visual style, atmosphere, and composition.
2. 'colorPalette': Object with 'primary' (array of strings), 'accent' (array of strings), 'background' (string).
3. 'typography': Object with 'style' (string describing fonts).

Output JSON only.`

// DefaultAspectRatio is used when no dimensions field was supplied.
const DefaultAspectRatio = "1:1"

// BuildPrompt renders the text instruction for a design request.
func BuildPrompt(fields map[string]string, style *flowcanvas.StyleAnalysis, assets int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a high-quality %s.", or(fields["designType"], "image"))

	b.WriteString("\n\nCONTENT REQUIREMENTS:")
	fmt.Fprintf(&b, "\n- Headline text: %q", fields["headline"])
	if v := fields["subheadline"]; v != "" {
		fmt.Fprintf(&b, "\n- Subheadline: %q", v)
	}
	if v := fields["ctaText"]; v != "" {
		fmt.Fprintf(&b, "\n- Call to action: %q", v)
	}
	fmt.Fprintf(&b, "\n- Subject/Product Description: %s", or(fields["productDescription"], "As shown in the asset images"))
	if v := fields["targetAudience"]; v != "" {
		fmt.Fprintf(&b, "\n- Target audience: %s", v)
	}

	b.WriteString("\n\nSTYLE & ATMOSPHERE:")
	fmt.Fprintf(&b, "\n- Mood: %s", or(fields["mood"], "Professional"))
	if v := fields["colorPreference"]; v != "" {
		fmt.Fprintf(&b, "\n- Color Preferences: %s", v)
	}
	if style != nil {
		fmt.Fprintf(&b, "\n- Style Reference Analysis: %s", style.StyleDescription)
	}

	if assets > 0 {
		b.WriteString("\n\nASSETS:")
		b.WriteString("\n- Use the provided product/object images (marked as assets) as the main subject.")
		b.WriteString("\n- Integrate them naturally into the design.")
	}

	if v := fields["additionalInstructions"]; v != "" {
		fmt.Fprintf(&b, "\n\nADDITIONAL INSTRUCTIONS:\n%s", v)
	}

	b.WriteString("\n\nIMPORTANT:")
	b.WriteString("\n- The image must look like a finished professional design.")
	b.WriteString("\n- Ensure text layout is coherent.")
	b.WriteString("\n- Maintain the visual identity of the reference image provided (if any).")
	return b.String()
}

// AspectRatio picks the output ratio from the dimensions field.
func AspectRatio(fields map[string]string) string {
	return or(fields["dimensions"], DefaultAspectRatio)
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
