package template

import (
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

var schedulers = []any{"DDIM", "DPM_MULTISTEP", "K_EULER"}

func ptr(v float64) *float64 { return &v }

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func enum(values ...any) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Enum: values}
}

func integer(lo, hi float64) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Minimum: ptr(lo), Maximum: ptr(hi)}
}

func dimension(lo, hi float64) *jsonschema.Schema {
	s := integer(lo, hi)
	s.MultipleOf = ptr(8)
	return s
}

func number(lo, hi float64) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Minimum: ptr(lo), Maximum: ptr(hi)}
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

// Builtin returns fresh copies of the templates shipped with the service.
func Builtin() []*Template {
	templates := []*Template{sdxl(), sd15(), llamaChat(), llamaCompletion()}
	return append(templates, controlnetTemplates()...)
}

func sdxl() *Template {
	return &Template{
		Key:         "sd/sdxl",
		ID:          "sdxl-base",
		Name:        "SDXL Base Parameters",
		Description: "Default parameters for SDXL models",
		ModelType:   "stable-diffusion",
		DefaultParameters: map[string]any{
			"width":               1024,
			"height":              1024,
			"num_inference_steps": 50,
			"guidance_scale":      7.5,
			"prompt_strength":     1.0,
			"refine":              "expert_ensemble_refiner",
			"scheduler":           "K_EULER",
			"num_outputs":         1,
		},
		ParameterSchema: object(map[string]*jsonschema.Schema{
			"prompt":              str("Text prompt for image generation"),
			"negative_prompt":     str("Text prompt for elements to avoid"),
			"width":               dimension(512, 2048),
			"height":              dimension(512, 2048),
			"num_inference_steps": integer(1, 100),
			"guidance_scale":      number(1, 20),
			"prompt_strength":     number(0, 1),
			"refine":              enum("no_refiner", "expert_ensemble_refiner", "base_image_refiner"),
			"scheduler":           enum(schedulers...),
			"num_outputs":         integer(1, 4),
		}, "prompt"),
		Version: "1.0.0",
	}
}

func sd15() *Template {
	return &Template{
		Key:         "sd/sd15",
		ID:          "sd-1.5-base",
		Name:        "Stable Diffusion 1.5 Parameters",
		Description: "Default parameters for SD 1.5 models",
		ModelType:   "stable-diffusion",
		DefaultParameters: map[string]any{
			"width":               512,
			"height":              512,
			"num_inference_steps": 50,
			"guidance_scale":      7.5,
			"scheduler":           "K_EULER",
			"num_outputs":         1,
		},
		ParameterSchema: object(map[string]*jsonschema.Schema{
			"prompt":              str("Text prompt for image generation"),
			"negative_prompt":     str("Text prompt for elements to avoid"),
			"width":               dimension(256, 1024),
			"height":              dimension(256, 1024),
			"num_inference_steps": integer(1, 100),
			"guidance_scale":      number(1, 20),
			"scheduler":           enum(schedulers...),
			"num_outputs":         integer(1, 4),
		}, "prompt"),
		Version: "1.0.0",
	}
}

func llamaChat() *Template {
	return &Template{
		Key:         "llama/chat",
		ID:          "llama-chat",
		Name:        "LLaMA Chat Parameters",
		Description: "Default parameters for instruction-tuned LLaMA chat models",
		ModelType:   "llama",
		DefaultParameters: map[string]any{
			"max_tokens":        512,
			"min_tokens":        0,
			"temperature":       0.7,
			"top_p":             0.9,
			"top_k":             50,
			"presence_penalty":  0.0,
			"frequency_penalty": 0.0,
			"prompt_template":   "{prompt}",
		},
		ParameterSchema: object(map[string]*jsonschema.Schema{
			"prompt":            str("User message sent to the model"),
			"system_prompt":     str("System prompt that frames the conversation"),
			"max_tokens":        integer(1, 8192),
			"min_tokens":        integer(0, 8192),
			"temperature":       number(0, 5),
			"top_p":             number(0, 1),
			"top_k":             integer(0, 1000),
			"presence_penalty":  number(-2, 2),
			"frequency_penalty": number(-2, 2),
			"stop_sequences":    str("Comma-separated sequences that stop generation"),
			"prompt_template":   str("Template applied to the prompt; {prompt} is substituted"),
			"seed":              integer(0, 2147483647),
		}, "prompt"),
		Version: "1.0.0",
	}
}

func llamaCompletion() *Template {
	return &Template{
		Key:         "llama/completion",
		ID:          "llama-completion",
		Name:        "LLaMA Completion Parameters",
		Description: "Default parameters for base LLaMA text completion models",
		ModelType:   "llama",
		DefaultParameters: map[string]any{
			"max_new_tokens":     256,
			"min_new_tokens":     -1,
			"temperature":        0.75,
			"top_p":              0.9,
			"repetition_penalty": 1.15,
		},
		ParameterSchema: object(map[string]*jsonschema.Schema{
			"prompt":             str("Text to continue"),
			"max_new_tokens":     integer(1, 4096),
			"min_new_tokens":     integer(-1, 4096),
			"temperature":        number(0.01, 5),
			"top_p":              number(0, 1),
			"repetition_penalty": number(0.01, 5),
			"stop_sequences":     str("Comma-separated sequences that stop generation"),
			"seed":               integer(0, 2147483647),
		}, "prompt"),
		Version: "1.0.0",
	}
}

func controlnetBaseDefaults() map[string]any {
	return map[string]any{
		"num_inference_steps":           30,
		"guidance_scale":                7.5,
		"controlnet_conditioning_scale": 1.0,
		"control_guidance_start":        0.0,
		"control_guidance_end":          1.0,
		"scheduler":                     "K_EULER",
	}
}

func controlnetBaseProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"prompt":                        str("Text prompt for image generation"),
		"negative_prompt":               str("Text prompt for elements to avoid"),
		"image":                         str("Base64 encoded input image"),
		"num_inference_steps":           integer(1, 100),
		"guidance_scale":                number(1, 20),
		"controlnet_conditioning_scale": number(0, 2),
		"control_guidance_start":        number(0, 1),
		"control_guidance_end":          number(0, 1),
		"scheduler":                     enum(schedulers...),
	}
}

func controlnet(control, name, description string, defaults map[string]any, props map[string]*jsonschema.Schema) *Template {
	mergedDefaults := controlnetBaseDefaults()
	maps.Copy(mergedDefaults, defaults)
	mergedProps := controlnetBaseProperties()
	maps.Copy(mergedProps, props)
	return &Template{
		Key:               "controlnet/" + control,
		ID:                "controlnet-" + control,
		Name:              name,
		Description:       description,
		ModelType:         "controlnet",
		ControlType:       control,
		DefaultParameters: mergedDefaults,
		ParameterSchema:   object(mergedProps, "prompt", "image"),
		Version:           "1.0.0",
	}
}

func controlnetTemplates() []*Template {
	return []*Template{
		controlnet("canny",
			"ControlNet Canny Parameters",
			"Parameters for ControlNet Canny edge detection models",
			map[string]any{"low_threshold": 100, "high_threshold": 200},
			map[string]*jsonschema.Schema{
				"low_threshold":  integer(1, 255),
				"high_threshold": integer(1, 255),
			}),
		controlnet("depth",
			"ControlNet Depth Parameters",
			"Parameters for ControlNet depth estimation models",
			map[string]any{"detect_resolution": 512, "boost": 1.0},
			map[string]*jsonschema.Schema{
				"detect_resolution": integer(128, 1024),
				"boost":             number(0, 2),
			}),
		controlnet("pose",
			"ControlNet Pose Parameters",
			"Parameters for ControlNet pose detection models",
			map[string]any{"detect_resolution": 512, "include_hand_pose": true, "include_face_landmarks": true},
			map[string]*jsonschema.Schema{
				"detect_resolution":      integer(128, 1024),
				"include_hand_pose":      {Type: "boolean"},
				"include_face_landmarks": {Type: "boolean"},
			}),
		controlnet("segmentation",
			"ControlNet Segmentation Parameters",
			"Parameters for ControlNet segmentation models",
			// ADE20K is the default label set
			map[string]any{"detect_resolution": 512, "output_type": "ade20k"},
			map[string]*jsonschema.Schema{
				"detect_resolution": integer(128, 1024),
				"output_type":       enum("ade20k", "coco"),
			}),
	}
}
