package gen

// JSON schemas sent to models that support structured outputs. Models without
// schema support still receive the shape through the prompt text; the schemas
// here only tighten the contract where the provider can enforce it.

func schemaString() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func schemaEnum(values ...string) map[string]interface{} {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]interface{}{"type": "string", "enum": enum}
}

func schemaNullable(inner map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"anyOf": []interface{}{inner, map[string]interface{}{"type": "null"}}}
}

func schemaBool() map[string]interface{} {
	return map[string]interface{}{"type": "boolean"}
}

func schemaNumber() map[string]interface{} {
	return map[string]interface{}{"type": "number"}
}

func schemaStringArray() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": schemaString()}
}

func schemaObject(properties map[string]interface{}, required ...string) map[string]interface{} {
	req := make([]interface{}, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

func mnemonicStyleSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"humor":      schemaEnum("none", "light", "dark", "aggressive"),
		"dialect":    schemaEnum("none", "mandarin", "dongbei", "cantonese"),
		"complexity": schemaEnum("simple", "normal", "complex"),
		"extra_tags": schemaStringArray(),
	}, "humor", "dialect", "complexity", "extra_tags")
}

func imageStyleSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"need_image": schemaBool(),
		"style":      schemaEnum("none", "cute", "comic", "realistic", "anime"),
		"mood":       schemaEnum("neutral", "funny", "dark", "warm"),
		"extra_tags": schemaStringArray(),
	}, "need_image", "style", "mood", "extra_tags")
}

func voiceStyleSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"preset_id": schemaNullable(schemaString()),
		"gender":    schemaEnum("male", "female", "neutral"),
		"energy":    schemaEnum("low", "medium", "high"),
		"pitch":     schemaEnum("low", "medium", "high"),
		"speed":     schemaEnum("slow", "normal", "fast"),
		"tone":      schemaEnum("soft", "normal", "bright"),
	}, "preset_id", "gender", "energy", "pitch", "speed", "tone")
}

func decisionSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"intent": schemaEnum("new_word", "refine_mnemonic", "change_image",
			"change_audio", "update_preferences", "explain", "small_talk", "out_of_scope"),
		"word":       schemaNullable(schemaString()),
		"difficulty": schemaEnum("easy", "medium", "hard", "unknown"),
		"style_profile_id": schemaNullable(schemaEnum(
			"simple_clean", "funny", "aggressive", "dongbei_funny", "other")),
		"need_new_mnemonic": schemaBool(),
		"need_new_image":    schemaBool(),
		"need_new_audio":    schemaBool(),
		"audio_flow":        schemaEnum("parallel", "after_image", "audio_only"),
		"mnemonic_style":    schemaNullable(mnemonicStyleSchema()),
		"image_style":       schemaNullable(imageStyleSchema()),
		"voice_style":       schemaNullable(voiceStyleSchema()),
		"scope":             schemaEnum("this_turn", "session_default"),
		"reason":            schemaString(),
	}, "intent", "word", "difficulty", "style_profile_id", "need_new_mnemonic",
		"need_new_image", "need_new_audio", "audio_flow", "mnemonic_style",
		"image_style", "voice_style", "scope", "reason")
}

func wordBlockSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"word": schemaString(),
		"phonetic": schemaObject(map[string]interface{}{
			"ipa":                schemaString(),
			"pronunciation_note": schemaString(),
		}, "ipa", "pronunciation_note"),
		"homophone": schemaObject(map[string]interface{}{
			"text":        schemaString(),
			"raw":         schemaString(),
			"explanation": schemaString(),
		}, "text", "raw", "explanation"),
		"meaning": schemaObject(map[string]interface{}{
			"pos": schemaString(),
			"cn":  schemaString(),
			"en":  schemaString(),
		}, "pos", "cn", "en"),
		"story": schemaString(),
	}, "word", "phonetic", "homophone", "meaning", "story")
}

func imagePlanSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"image_prompt":    schemaString(),
		"negative_prompt": schemaString(),
		"reason":          schemaString(),
	}, "image_prompt", "negative_prompt", "reason")
}

func speechPlanSchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"text_to_speak":   schemaString(),
		"voice_preset_id": schemaString(),
		"speed_rate":      schemaNumber(),
		"reason":          schemaString(),
	}, "text_to_speak", "voice_preset_id", "speed_rate", "reason")
}

func replySchema() map[string]interface{} {
	return schemaObject(map[string]interface{}{
		"reply_text": schemaString(),
	}, "reply_text")
}
