package cdp

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// maxElements caps one extraction so huge pages stay bounded
const maxElements = 500

// scriptOptions is injected into every script as a JSON literal
type scriptOptions struct {
	Focus       domain.FocusFilter `json:"focus"`
	Selector    string             `json:"selector"`
	Tags        []string           `json:"tags"`
	MaxElements int                `json:"maxElements"`
}

// buildScript maps an expression kind to its fixed script.
// Parameters enter the script only as JSON data.
func buildScript(expr driven.Expression) (string, error) {
	opts := scriptOptions{
		Focus:       expr.Focus.Normalize(),
		Selector:    expr.Selector,
		Tags:        expr.Focus.Tags(),
		MaxElements: maxElements,
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode script options: %w", err)
	}

	switch expr.Kind {
	case driven.ExpressionExtractElements:
		return fmt.Sprintf(extractElementsScript, expr.Kind, data), nil
	case driven.ExpressionSelectorState:
		if expr.Selector == "" {
			return "", fmt.Errorf("%w: selector_state needs a selector", domain.ErrInvalidInput)
		}
		return fmt.Sprintf(selectorStateScript, expr.Kind, data), nil
	}
	return "", fmt.Errorf("%w: unsupported expression %q", domain.ErrInvalidInput, expr.Kind)
}

const extractElementsScript = `/* sercha:%s */
(() => {
  const opts = %s;
  const styleKeys = ["color", "backgroundColor", "fontSize", "fontFamily", "display",
    "padding", "margin", "width", "height", "borderRadius"];
  const attrKeys = ["role", "aria-label", "type", "href", "name", "placeholder"];

  const cssPath = (el) => {
    if (el.id) return "#" + CSS.escape(el.id);
    const parts = [];
    for (let node = el; node && node.nodeType === 1 && parts.length < 4; node = node.parentElement) {
      if (node.id) { parts.unshift("#" + CSS.escape(node.id)); break; }
      let part = node.tagName.toLowerCase();
      const classes = Array.from(node.classList).slice(0, 2);
      if (classes.length) part += "." + classes.map((c) => CSS.escape(c)).join(".");
      const parent = node.parentElement;
      if (parent) {
        const same = Array.from(parent.children).filter((c) => c.tagName === node.tagName);
        if (same.length > 1) part += ":nth-of-type(" + (same.indexOf(node) + 1) + ")";
      }
      parts.unshift(part);
    }
    return parts.join(" > ");
  };

  const allowed = (el) => {
    const tag = el.tagName.toLowerCase();
    const role = (el.getAttribute("role") || "").toLowerCase();
    const isCard = (typeof el.className === "string" ? el.className : "").toLowerCase().includes("card");
    switch (opts.focus) {
      case "button":
        return tag === "button" || role === "button" ||
          (tag === "input" && ["submit", "button"].includes(el.getAttribute("type")));
      case "input":
        return ["input", "textarea", "select"].includes(tag) || role === "textbox";
      case "card":
        return isCard;
    }
    return opts.tags.includes(tag) || role === "button" || isCard;
  };

  const root = opts.selector ? document.querySelector(opts.selector) : document.body;
  const elements = [];
  if (root) {
    const candidates = [root, ...root.querySelectorAll("*")];
    for (const el of candidates) {
      if (elements.length >= opts.maxElements) break;
      if (!allowed(el)) continue;
      const rect = el.getBoundingClientRect();
      const computed = getComputedStyle(el);
      const styles = {};
      for (const key of styleKeys) styles[key] = computed[key];
      const attributes = {};
      for (const key of attrKeys) {
        const value = el.getAttribute(key);
        if (value !== null) attributes[key] = value;
      }
      elements.push({
        selector: cssPath(el),
        text: (el.innerText || el.value || "").trim().slice(0, 200),
        bounds: { x: rect.x, y: rect.y, width: rect.width, height: rect.height },
        tagName: el.tagName,
        className: typeof el.className === "string" ? el.className : "",
        id: el.id || "",
        attributes,
        styles,
      });
    }
  }

  const inaccessibleStylesheets = [];
  for (const sheet of Array.from(document.styleSheets)) {
    try {
      void sheet.cssRules;
    } catch (e) {
      if (sheet.href) inaccessibleStylesheets.push(sheet.href);
    }
  }

  return { elements, inaccessibleStylesheets };
})()`

const selectorStateScript = `/* sercha:%s */
(() => {
  const opts = %s;
  const el = document.querySelector(opts.selector);
  if (!el) return { state: "missing" };
  const rect = el.getBoundingClientRect();
  const computed = getComputedStyle(el);
  if (rect.width <= 0 || rect.height <= 0 || computed.display === "none" || computed.visibility === "hidden") {
    return { state: "hidden" };
  }
  return { state: "visible" };
})()`
