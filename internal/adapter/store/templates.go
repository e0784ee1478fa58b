package store

import "github.com/arturoeanton/testgen-ai/internal/domain"

// DefaultTemplates are the reference skeletons every new store starts with.
// Placeholders use {{UPPER_SNAKE}} names.
func DefaultTemplates() []domain.TestTemplate {
	return []domain.TestTemplate{
		{
			Framework:   "Jest (React)",
			Category:    domain.CategoryUnit,
			Description: "React component testing with Jest and React Testing Library",
			Template: `import { render, screen, fireEvent } from '@testing-library/react';
import '@testing-library/jest-dom';
import {{COMPONENT_NAME}} from './{{COMPONENT_PATH}}';

describe('{{COMPONENT_NAME}}', () => {
  test('renders without crashing', () => {
    render(<{{COMPONENT_NAME}} />);
    expect(screen.getByText(/{{EXPECTED_TEXT}}/i)).toBeInTheDocument();
  });

  test('handles user interactions', () => {
    render(<{{COMPONENT_NAME}} />);
    fireEvent.click(screen.getByRole('button'));
    expect(screen.getByText(/{{RESULT_TEXT}}/i)).toBeInTheDocument();
  });
});`,
		},
		{
			Framework:   "Cypress",
			Category:    domain.CategoryE2E,
			Description: "End-to-end testing with Cypress",
			Template: `describe('{{TEST_SUITE_NAME}}', () => {
  beforeEach(() => {
    cy.visit('{{BASE_URL}}');
  });

  it('should {{TEST_DESCRIPTION}}', () => {
    cy.get('[data-testid="{{ELEMENT_ID}}"]').should('be.visible');
    cy.get('[data-testid="{{BUTTON_ID}}"]').click();
    cy.url().should('include', '{{EXPECTED_URL}}');
  });

  it('should handle form submission', () => {
    cy.get('[data-testid="{{INPUT_ID}}"]').type('{{TEST_INPUT}}');
    cy.get('[data-testid="{{SUBMIT_BUTTON}}"]').click();
    cy.get('[data-testid="{{SUCCESS_MESSAGE}}"]').should('contain', '{{EXPECTED_MESSAGE}}');
  });
});`,
		},
		{
			Framework:   "Selenium",
			Category:    domain.CategoryE2E,
			Description: "Browser automation testing with Selenium WebDriver",
			Template: `const { Builder, By, until } = require('selenium-webdriver');
const assert = require('assert');

describe('{{TEST_SUITE_NAME}}', function () {
  let driver;

  before(async function () {
    driver = await new Builder().forBrowser('chrome').build();
  });

  after(async function () {
    await driver.quit();
  });

  it('should {{TEST_DESCRIPTION}}', async function () {
    await driver.get('{{BASE_URL}}');
    const element = await driver.findElement(By.css('[data-testid="{{ELEMENT_ID}}"]'));
    await driver.wait(until.elementIsVisible(element), 10000);
    await element.click();

    const result = await driver.findElement(By.css('[data-testid="{{RESULT_ID}}"]'));
    assert.strictEqual(await result.getText(), '{{EXPECTED_TEXT}}');
  });
});`,
		},
		{
			Framework:   "Playwright",
			Category:    domain.CategoryE2E,
			Description: "Modern browser testing with Playwright",
			Template: `const { test, expect } = require('@playwright/test');

test.describe('{{TEST_SUITE_NAME}}', () => {
  test('should {{TEST_DESCRIPTION}}', async ({ page }) => {
    await page.goto('{{BASE_URL}}');
    await page.locator('[data-testid="{{BUTTON_ID}}"]').click();
    await expect(page.locator('[data-testid="{{RESULT_ID}}"]')).toHaveText('{{EXPECTED_TEXT}}');
  });

  test('should render on small screens', async ({ page }) => {
    await page.setViewportSize({ width: 375, height: 667 });
    await page.goto('{{BASE_URL}}');
    await expect(page.locator('[data-testid="{{MOBILE_MENU}}"]')).toBeVisible();
  });
});`,
		},
		{
			Framework:   "Pytest",
			Category:    domain.CategoryUnit,
			Description: "Python unit testing with Pytest",
			Template: `import pytest
from {{MODULE_NAME}} import {{FUNCTION_NAME}}


class Test{{CLASS_NAME}}:
    def test_{{FUNCTION_NAME}}_returns_expected_result(self):
        assert {{FUNCTION_NAME}}({{TEST_INPUT}}) == {{EXPECTED_OUTPUT}}

    def test_{{FUNCTION_NAME}}_rejects_invalid_input(self):
        with pytest.raises({{EXPECTED_EXCEPTION}}):
            {{FUNCTION_NAME}}({{INVALID_INPUT}})

    @pytest.mark.parametrize("value,expected", [
        ({{TEST_CASE_1}}),
        ({{TEST_CASE_2}}),
    ])
    def test_{{FUNCTION_NAME}}_parametrized(self, value, expected):
        assert {{FUNCTION_NAME}}(value) == expected`,
		},
	}
}
