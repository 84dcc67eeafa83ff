package dashboard

import (
	"encoding/json"
	"fmt"
)

// Each script starts with a marker comment naming it so page logs and test fakes can tell them apart.
const (
	markerTruckReady    = "/* dms:truck-ready */"
	markerTruckSelect   = "/* dms:truck-select */"
	markerCheckboxLabel = "/* dms:checkbox-label */"
	markerTextScan      = "/* dms:text-scan */"
	markerDropdownPick  = "/* dms:dropdown-chosen */"
	markerJSClick       = "/* dms:js-click */"
)

func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Strings and string slices always marshal.
		panic(fmt.Sprintf("dashboard: cannot encode script argument: %v", err))
	}
	return string(b)
}

// truckReadyScript evaluates to true once the select's options include an all-scope label.
func truckReadyScript(selector string, labels []string) string {
	return fmt.Sprintf(`%s (() => {
  const el = document.querySelector(%s);
  if (!el || !el.options || el.options.length === 0) return false;
  const labels = %s;
  return Array.from(el.options).some(o => labels.some(l => (o.text || "").trim().includes(l)));
})()`, markerTruckReady, jsArg(selector), jsArg(labels))
}

// truckSelectScript selects the option for scope and evaluates to its text, or "" if none matched.
func truckSelectScript(selector string, labels []string, scope string) string {
	return fmt.Sprintf(`%s (() => {
  const el = document.querySelector(%s);
  if (!el || !el.options) return "";
  const labels = %s;
  const scope = %s;
  const wantAll = scope.toUpperCase() === "ALL";
  const opt = Array.from(el.options).find(o => {
    const text = (o.text || "").trim();
    if (wantAll) return labels.some(l => text.includes(l));
    return o.value === scope || text === scope;
  });
  if (!opt) return "";
  el.value = opt.value;
  opt.selected = true;
  el.dispatchEvent(new Event("change", { bubbles: true }));
  if (window.jQuery) window.jQuery(el).trigger("change");
  return (opt.text || "").trim();
})()`, markerTruckSelect, jsArg(selector), jsArg(labels), jsArg(scope))
}

// checkboxLabelScript ticks the checkbox whose label contains keyword.
func checkboxLabelScript(keyword string) string {
	return fmt.Sprintf(`%s (() => {
  const keyword = %s;
  for (const label of document.querySelectorAll("label")) {
    if (!(label.textContent || "").includes(keyword)) continue;
    const box = label.control || label.querySelector("input[type=checkbox]") ||
      (label.htmlFor ? document.getElementById(label.htmlFor) : null);
    if (!box || box.type !== "checkbox") continue;
    if (!box.checked) box.click();
    return box.checked;
  }
  return false;
})()`, markerCheckboxLabel, jsArg(keyword))
}

// dropdownChosenScript evaluates to true when the dropdown shows a chosen entry containing keyword:
// a select2/chosen tag, a selected option or a checked box inside the widget.
func dropdownChosenScript(dropdownID, keyword string) string {
	return fmt.Sprintf(`%s (() => {
  const root = document.getElementById(%s);
  if (!root) return false;
  const keyword = %s;
  const has = el => ((el.textContent || el.title || "")).includes(keyword);
  const scope = [root];
  if (root.nextElementSibling) scope.push(root.nextElementSibling);
  for (const el of scope) {
    if (el.tagName === "SELECT" &&
        Array.from(el.selectedOptions || []).some(o => (o.text || "").includes(keyword))) return true;
    const tags = el.querySelectorAll(
      ".select2-selection__choice, .search-choice, .chosen-single, [aria-selected=true], option:checked");
    if (Array.from(tags).some(has)) return true;
    for (const box of el.querySelectorAll("input[type=checkbox]:checked")) {
      const label = box.closest("label, li") || box.parentElement;
      if (label && has(label)) return true;
    }
  }
  return false;
})()`, markerDropdownPick, jsArg(dropdownID), jsArg(keyword))
}

// textScanScript finds the first visible element whose own text contains keyword and activates the
// nearest checkbox or clickable ancestor. Checkboxes are only ticked, never cleared.
func textScanScript(keyword string) string {
	return fmt.Sprintf(`%s (() => {
  const keyword = %s;
  const nodes = document.querySelectorAll("li, option, a, span, div, td, label");
  for (const node of nodes) {
    const own = Array.from(node.childNodes)
      .filter(n => n.nodeType === Node.TEXT_NODE)
      .map(n => n.textContent)
      .join("")
      .trim();
    if (!own.includes(keyword)) continue;
    if (node.tagName === "OPTION") {
      node.selected = true;
      node.parentElement.dispatchEvent(new Event("change", { bubbles: true }));
      return true;
    }
    if (node.offsetParent === null) continue;
    const target = node.closest("label, li, a, button, [role=option], [onclick]") || node;
    let box = target.querySelector("input[type=checkbox]");
    if (!box && target.parentElement) {
      box = target.parentElement.querySelector(":scope > input[type=checkbox]");
    }
    if (box) {
      if (!box.checked) box.click();
      return box.checked;
    }
    target.click();
    return true;
  }
  return false;
})()`, markerTextScan, jsArg(keyword))
}

// jsClickScript clicks the first element matching selector even when it is not interactable.
func jsClickScript(selector string) string {
	return fmt.Sprintf(`%s (() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  el.click();
  return true;
})()`, markerJSClick, jsArg(selector))
}
